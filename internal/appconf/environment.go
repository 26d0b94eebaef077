package appconf

import "fmt"

// Environment is the operating environment of the planner.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

var environmentNames = map[Environment]string{
	Development: "development",
	Test:        "test",
	Production:  "production",
}

func (e Environment) String() string {
	if name, ok := environmentNames[e]; ok {
		return name
	}
	return "unknown"
}

// EnvironmentFromString parses development, test or production.
func EnvironmentFromString(s string) (Environment, error) {
	for env, name := range environmentNames {
		if name == s {
			return env, nil
		}
	}
	return Development, fmt.Errorf("unknown environment %q", s)
}
