// Package contract seeds fixture records and runs the lookup contract
// against a live configstore service.
package contract

import (
	"fmt"

	"github.com/groblegark/configstore/internal/model"
)

// DefaultFixtures returns the records the contract suite provisions: one
// "test_data" row for each built-in model.
func DefaultFixtures(reg *model.Registry) ([]*model.Record, error) {
	robot, ok := reg.Lookup(model.ModelDevelopMrRobot)
	if !ok {
		return nil, fmt.Errorf("model %q not registered", model.ModelDevelopMrRobot)
	}
	vpn, ok := reg.Lookup(model.ModelTestVPN)
	if !ok {
		return nil, fmt.Errorf("model %q not registered", model.ModelTestVPN)
	}

	return []*model.Record{
		model.NewRecord(robot, "test_data").
			Set("host", "test_host").
			Set("port", int64(1111)).
			Set("database", "test_database").
			Set("user", "test_user").
			Set("password", "test_password").
			Set("schema", "test_schema"),
		model.NewRecord(vpn, "test_data").
			Set("host", "test_host").
			Set("port", int64(2222)).
			Set("virtualhost", "test_virtualhost").
			Set("user", "test_user").
			Set("password", "test_password"),
	}, nil
}
