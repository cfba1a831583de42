package state

import "globalstate/other"

var (
	counter int
	cache   = map[string]string{}
	cfg     struct{ Name string }
)

func init() {
	counter = 1
}

type holder struct {
	n int
}

func (h *holder) inc() {
	h.n++
}

func touch() {
	local := 0
	local++
	_ = local

	counter++           // want "assignment to package-level variable counter"
	counter = 2         // want "assignment to package-level variable counter"
	cache["k"] = "v"    // want "assignment to package-level variable cache"
	cfg.Name = "x"      // want "assignment to package-level variable cfg"
	other.Shared = 10   // want "assignment to package-level variable Shared"
	counter, _ = 3, 4   // want "assignment to package-level variable counter"
}
