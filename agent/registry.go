package agent

import (
	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/internal/registry"
)

// Global is the process wide agent registry, keyed by agent name.
var Global = registry.New[api.Agent]()

func Add(agent api.Agent) {
	Global.Add(agent.Name(), agent)
}

func Get(name string) (api.Agent, bool) {
	return Global.Get(name)
}

func Del(name string) {
	Global.Del(name)
}

// Names lists the registered agent names in sorted order.
func Names() []string {
	return Global.Names()
}

// AddGraph registers root and every agent reachable from it through
// hand-offs. It returns the names it registered in visiting order; an agent
// seen twice under the same name is registered once.
func AddGraph(root api.Agent) []string {
	var names []string
	seen := map[string]bool{}
	var visit func(api.Agent)
	visit = func(a api.Agent) {
		if a == nil || seen[a.Name()] {
			return
		}
		seen[a.Name()] = true
		Add(a)
		names = append(names, a.Name())
		for _, h := range a.Handoffs() {
			visit(h.Agent)
		}
	}
	visit(root)
	return names
}
