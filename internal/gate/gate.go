// Package gate decides, for every evaluation, whether the current user may
// see a protected view. Each gate is a three-state machine: it resolves to
// allowed or denied only once the session (and, for role gates, the role)
// is known, so protected content is never shown to an unauthorized viewer,
// not even momentarily.
package gate

import (
	"context"

	"github.com/pricewatch-dev/pricewatch/internal/role"
	"github.com/pricewatch-dev/pricewatch/internal/session"
)

// State is the outcome of a gate evaluation
type State int

const (
	// StateResolving means session or role are not yet known; render a
	// loading indicator, never the protected view and never a redirect
	StateResolving State = iota
	// StateDenied means the viewer is redirected to the gate's fallback
	StateDenied
	// StateAllowed means the protected view may render
	StateAllowed
)

func (s State) String() string {
	switch s {
	case StateDenied:
		return "denied"
	case StateAllowed:
		return "allowed"
	default:
		return "resolving"
	}
}

// Fallback routes for denied evaluations
const (
	LoginRoute = "/login"
	HomeRoute  = "/"
)

// Decision is the rendered outcome of one evaluation. RedirectTo is set only
// when denied; From preserves the attempted location so the fallback view
// can return the user afterward.
type Decision struct {
	State      State
	RedirectTo string
	From       string
}

// Gate guards one protected view. The zero value is unusable; construct
// gates with Private, Vendor or Admin.
type Gate struct {
	name     string
	required role.Role // Unknown means session-only, no role requirement
	fallback string
}

// Private requires only a present session
func Private() Gate {
	return Gate{name: "private", fallback: LoginRoute}
}

// Vendor requires a session whose role is exactly vendor
func Vendor() Gate {
	return Gate{name: "vendor", required: role.Vendor, fallback: HomeRoute}
}

// Admin requires a session whose role is exactly admin
func Admin() Gate {
	return Gate{name: "admin", required: role.Admin, fallback: HomeRoute}
}

// Name identifies the gate variant
func (g Gate) Name() string { return g.name }

// RequiresRole reports whether the gate checks the resolved role
func (g Gate) RequiresRole() bool { return g.required.Known() }

// Evaluate maps the current session and role snapshots onto a decision.
// While the session is unknown the result is resolving regardless of
// anything else; an unknown role on a role gate also resolves, never denies
// early and never allows early.
func (g Gate) Evaluate(sess session.Snapshot, roles role.Snapshot, from string) Decision {
	if sess.Loading {
		return Decision{State: StateResolving, From: from}
	}

	if sess.Identity == nil {
		return Decision{State: StateDenied, RedirectTo: g.fallback, From: from}
	}

	if !g.RequiresRole() {
		return Decision{State: StateAllowed, From: from}
	}

	if roles.Loading {
		return Decision{State: StateResolving, From: from}
	}

	// Exact match only. Unknown (including fetch failures and values outside
	// the enumerated set) fails closed.
	if roles.Role != g.required {
		return Decision{State: StateDenied, RedirectTo: g.fallback, From: from}
	}

	return Decision{State: StateAllowed, From: from}
}

// Evaluator binds a gate to the live session store and role resolver and
// re-evaluates as they change.
type Evaluator struct {
	gate     Gate
	sessions *session.Store
	roles    *role.Resolver
}

// NewEvaluator creates an evaluator for the given gate
func NewEvaluator(g Gate, sessions *session.Store, roles *role.Resolver) *Evaluator {
	return &Evaluator{gate: g, sessions: sessions, roles: roles}
}

// Decide performs a single evaluation against the current snapshots,
// kicking off the role fetch when the gate needs one
func (e *Evaluator) Decide(ctx context.Context, from string) Decision {
	sess := e.sessions.Current()

	var roles role.Snapshot
	if e.gate.RequiresRole() && !sess.Loading && sess.Identity != nil {
		roles = e.roles.Resolve(ctx, sess.Identity)
	}

	return e.gate.Evaluate(sess, roles, from)
}

// Await blocks until the decision leaves the resolving state or the context
// is done. Session and role changes trigger re-evaluation.
func (e *Evaluator) Await(ctx context.Context, from string) (Decision, error) {
	changed := make(chan struct{}, 1)
	poke := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	unsubSession := e.sessions.Subscribe(func(session.Snapshot) { poke() })
	defer unsubSession()
	unsubRoles := e.roles.Subscribe(poke)
	defer unsubRoles()

	for {
		if d := e.Decide(ctx, from); d.State != StateResolving {
			return d, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return Decision{State: StateResolving, From: from}, ctx.Err()
		}
	}
}
