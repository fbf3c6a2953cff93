// Package metrics exports progression activity as Prometheus metrics.
//
// Collector is a progression.Observer: subscribe it to an engine and every
// committed change updates the counters and gauges. WriteTextfile dumps a
// registry in the node-exporter textfile format for one-shot CLI runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/baselines/internal/progression"
)

const namespace = "baselines"

// Collector turns engine notifications into metrics.
type Collector struct {
	actions   *prometheus.CounterVec
	xpAwarded *prometheus.CounterVec
	badges    *prometheus.CounterVec
	xpSettled prometheus.Counter
	settles   prometheus.Counter
	levelUps  prometheus.Counter
	tierMoves prometheus.Counter
	pendingXP prometheus.Gauge
	settledXP prometheus.Gauge
	level     prometheus.Gauge
	tier      prometheus.Gauge
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Rewarded actions recorded, by action.",
		}, []string{"action"}),
		xpAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "xp_awarded_total",
			Help:      "XP credited to the pending pool, by action.",
		}, []string{"action"}),
		badges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badges_awarded_total",
			Help:      "Badges newly attached, by badge.",
		}, []string{"badge"}),
		xpSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "xp_settled_total",
			Help:      "XP moved from pending to settled.",
		}),
		settles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlements that moved a positive amount.",
		}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Levels gained through settlement.",
		}),
		tierMoves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tier_changes_total",
			Help:      "Settlements that moved the user to a new tier.",
		}),
		pendingXP: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_xp",
			Help:      "Current pending XP.",
		}),
		settledXP: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "settled_xp",
			Help:      "Current settled XP.",
		}),
		level: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "level",
			Help:      "Current level.",
		}),
		tier: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tier",
			Help:      "Current tier (0 bronze, 1 silver, 2 gold, 3 elite).",
		}),
	}

	for _, m := range []prometheus.Collector{
		c.actions, c.xpAwarded, c.badges,
		c.xpSettled, c.settles, c.levelUps, c.tierMoves,
		c.pendingXP, c.settledXP, c.level, c.tier,
	} {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return c, nil
}

// Seed sets the gauges from a snapshot, for engines hydrated from storage.
func (c *Collector) Seed(s progression.Snapshot) {
	c.pendingXP.Set(float64(s.Pending))
	c.settledXP.Set(float64(s.Settled))
	c.level.Set(float64(s.Level))
	c.tier.Set(float64(s.Tier))
}

// Observe implements progression.Observer.
func (c *Collector) Observe(n progression.Notification) {
	switch n.Kind {
	case progression.KindReward:
		c.actions.WithLabelValues(n.Action.String()).Inc()
		c.xpAwarded.WithLabelValues(n.Action.String()).Add(float64(n.Amount))
	case progression.KindSettled:
		c.settles.Inc()
		c.xpSettled.Add(float64(n.Amount))
	case progression.KindLevelUp:
		c.levelUps.Add(float64(n.Amount))
	case progression.KindTierChanged:
		c.tierMoves.Inc()
	case progression.KindBadge:
		c.badges.WithLabelValues(n.Badge).Inc()
	}
	c.pendingXP.Set(float64(n.Pending))
	c.settledXP.Set(float64(n.Settled))
	c.level.Set(float64(n.Level))
	c.tier.Set(float64(n.Tier))
}

// WriteTextfile writes everything gathered from g to path in the text
// exposition format. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
