package presence

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// op is one register or unregister step drawn from a small user/conn space
// so sequences collide often.
type op struct {
	Register bool
	User     int
	Conn     int
}

func genOp() gopter.Gen {
	return gopter.CombineGens(
		gen.Bool(),
		gen.IntRange(0, 3),
		gen.IntRange(0, 5),
	).Map(func(v []interface{}) op {
		return op{Register: v[0].(bool), User: v[1].(int), Conn: v[2].(int)}
	})
}

func TestRegistryOnlineProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("IsOnline holds exactly when ConnectionsFor is non-empty", prop.ForAll(
		func(ops []op) bool {
			r := NewRegistry()
			for _, o := range ops {
				userID := fmt.Sprintf("u%d", o.User)
				connID := fmt.Sprintf("c%d", o.Conn)
				if o.Register {
					_ = r.Register(userID, connID)
				} else {
					r.Unregister(connID, userID)
				}

				for u := 0; u < 4; u++ {
					id := fmt.Sprintf("u%d", u)
					if r.IsOnline(id) != (len(r.ConnectionsFor(id)) > 0) {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(genOp()),
	))

	properties.Property("a connection appears under at most one user", prop.ForAll(
		func(ops []op) bool {
			r := NewRegistry()
			for _, o := range ops {
				userID := fmt.Sprintf("u%d", o.User)
				connID := fmt.Sprintf("c%d", o.Conn)
				if o.Register {
					_ = r.Register(userID, connID)
				} else {
					r.Unregister(connID, userID)
				}
			}

			seen := make(map[string]bool)
			for _, u := range r.OnlineUsers() {
				for _, c := range r.ConnectionsFor(u) {
					if seen[c] {
						return false
					}
					seen[c] = true
				}
			}
			return true
		},
		gen.SliceOf(genOp()),
	))

	properties.Property("double register yields one entry", prop.ForAll(
		func(user, conn int) bool {
			r := NewRegistry()
			userID := fmt.Sprintf("u%d", user)
			connID := fmt.Sprintf("c%d", conn)
			_ = r.Register(userID, connID)
			_ = r.Register(userID, connID)
			conns := r.ConnectionsFor(userID)
			return len(conns) == 1 && conns[0] == connID
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
