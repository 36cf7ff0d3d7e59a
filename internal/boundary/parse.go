package boundary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/gridpde/internal/dynamo"
)

// Spec is parsed shorthand that is not yet bound to a grid. More specific
// entries win: Sides over Axes over All.
type Spec struct {
	All *Rule
	// Axes holds per-axis [low, high] rules by position; nil entries are
	// unset.
	Axes [][2]*Rule
	// Sides maps an axis label plus "-" or "+" (e.g. "x-", "r+") to a rule.
	// A bare label sets both sides of that axis.
	Sides map[string]Rule
}

func uniform(r Rule) Spec { return Spec{All: &r} }

// Parse resolves shorthand into a Spec. Accepted forms are a [Rule], a
// [Spec], a string, a rule map, a side map keyed by axis labels and a list
// with one entry (or [low, high] pair) per axis.
func Parse(spec any) (Spec, error) {
	switch v := spec.(type) {
	case nil:
		return uniform(Natural()), nil
	case Spec:
		return v, nil
	case *Spec:
		return *v, nil
	case Rule:
		return uniform(v), nil
	case string:
		r, err := parseRule(v)
		if err != nil {
			return Spec{}, err
		}
		return uniform(r), nil
	case map[string]any:
		if isRuleMap(v) {
			r, err := parseRule(v)
			if err != nil {
				return Spec{}, err
			}
			return uniform(r), nil
		}
		return parseSides(v)
	case []any:
		return parseAxes(v)
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return parseAxes(items)
	case []Rule:
		s := Spec{Axes: make([][2]*Rule, len(v))}
		for i := range v {
			r := v[i]
			s.Axes[i] = [2]*Rule{&r, &r}
		}
		return s, nil
	}
	return Spec{}, dynamo.Configf("boundary", "unsupported condition %v (%T)", spec, spec)
}

var ruleKeys = map[string]bool{
	"value": true, "dirichlet": true, "derivative": true, "neumann": true,
	"type": true, "mixed": true, "robin": true, "const": true,
}

func isRuleMap(m map[string]any) bool {
	for k := range m {
		if ruleKeys[k] {
			return true
		}
	}
	return len(m) == 0
}

func parseSides(m map[string]any) (Spec, error) {
	s := Spec{Sides: make(map[string]Rule, len(m))}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r, err := parseRule(m[k])
		if err != nil {
			return Spec{}, fmt.Errorf("side %q: %w", k, err)
		}
		s.Sides[k] = r
	}
	return s, nil
}

func parseAxes(items []any) (Spec, error) {
	s := Spec{Axes: make([][2]*Rule, len(items))}
	for i, item := range items {
		var pair []any
		switch v := item.(type) {
		case []any:
			pair = v
		case []string:
			pair = make([]any, len(v))
			for j, s := range v {
				pair[j] = s
			}
		}
		if pair != nil {
			if len(pair) != 2 {
				return Spec{}, dynamo.Configf("boundary", "axis %d: expected [low, high] pair, got %d entries", i, len(pair))
			}
			lo, err := parseRule(pair[0])
			if err != nil {
				return Spec{}, fmt.Errorf("axis %d low: %w", i, err)
			}
			hi, err := parseRule(pair[1])
			if err != nil {
				return Spec{}, fmt.Errorf("axis %d high: %w", i, err)
			}
			s.Axes[i] = [2]*Rule{&lo, &hi}
			continue
		}
		r, err := parseRule(item)
		if err != nil {
			return Spec{}, fmt.Errorf("axis %d: %w", i, err)
		}
		s.Axes[i] = [2]*Rule{&r, &r}
	}
	return s, nil
}

func parseRule(v any) (Rule, error) {
	switch r := v.(type) {
	case Rule:
		return r, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(r)) {
		case "natural", "auto_periodic_neumann", "auto_neumann":
			return Natural(), nil
		case "auto_periodic_dirichlet", "auto_dirichlet":
			return AutoDirichlet(), nil
		case "neumann", "derivative", "no-flux":
			return Derivative(0), nil
		case "dirichlet", "value":
			return Value(0), nil
		case "periodic":
			return Periodic(), nil
		}
		return Rule{}, dynamo.Configf("boundary", "unknown condition %q", r)
	case map[string]any:
		return parseRuleMap(r)
	}
	return Rule{}, dynamo.Configf("boundary", "unsupported condition %v (%T)", v, v)
}

func parseRuleMap(m map[string]any) (Rule, error) {
	if len(m) == 0 {
		return Rule{}, dynamo.Configf("boundary", "empty condition")
	}
	if t, ok := m["type"]; ok {
		name, ok := t.(string)
		if !ok {
			return Rule{}, dynamo.Configf("boundary", "type must be a string, got %T", t)
		}
		val, err := number(m, "value", 0)
		if err != nil {
			return Rule{}, err
		}
		switch strings.ToLower(name) {
		case "value", "dirichlet":
			return Value(val), nil
		case "derivative", "neumann":
			return Derivative(val), nil
		case "mixed", "robin":
			c, err := number(m, "const", 0)
			if err != nil {
				return Rule{}, err
			}
			return Mixed(val, 1, c), nil
		case "periodic":
			return Periodic(), nil
		case "natural", "auto_periodic_neumann":
			return Natural(), nil
		}
		return Rule{}, dynamo.Configf("boundary", "unknown condition type %q", name)
	}

	var found []Rule
	for _, key := range []string{"value", "dirichlet"} {
		if _, ok := m[key]; ok {
			v, err := number(m, key, 0)
			if err != nil {
				return Rule{}, err
			}
			found = append(found, Value(v))
		}
	}
	for _, key := range []string{"derivative", "neumann"} {
		if _, ok := m[key]; ok {
			v, err := number(m, key, 0)
			if err != nil {
				return Rule{}, err
			}
			found = append(found, Derivative(v))
		}
	}
	for _, key := range []string{"mixed", "robin"} {
		if _, ok := m[key]; ok {
			gamma, err := number(m, key, 0)
			if err != nil {
				return Rule{}, err
			}
			c, err := number(m, "const", 0)
			if err != nil {
				return Rule{}, err
			}
			found = append(found, Mixed(gamma, 1, c))
		}
	}
	if len(found) != 1 {
		return Rule{}, dynamo.Configf("boundary", "ambiguous or unknown condition %v", m)
	}
	return found[0], nil
}

func number(m map[string]any, key string, def float64) (float64, error) {
	v, ok := m[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	return 0, dynamo.Configf("boundary", "%s must be a number, got %T", key, v)
}
