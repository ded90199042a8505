package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// applyConfigFile reads a YAML map of flag names to values, e.g.
//
//   telegram.token-file: /etc/pubbot/token
//   webhook.public-host: bot.example.com
//
// and sets every flag in it that was not given on the command line.
func applyConfigFile(f *flag.FlagSet, path string) error {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	values := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}

	explicit := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { explicit[fl.Name] = true })

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if f.Lookup(name) == nil {
			return errors.Errorf("%s: unknown flag %q", path, name)
		}
		if explicit[name] {
			continue
		}
		switch v := values[name].(type) {
		case map[interface{}]interface{}, []interface{}:
			return errors.Errorf("%s: %q must be a scalar", path, name)
		case nil:
			continue
		default:
			if err := f.Set(name, fmt.Sprint(v)); err != nil {
				return errors.Wrapf(err, "%s: %q", path, name)
			}
		}
	}
	return nil
}
