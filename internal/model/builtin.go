package model

// Built-in model names.
const (
	ModelDevelopMrRobot = "Develop.mr_robot"
	ModelTestVPN        = "Test.vpn"
)

// BuiltinModels returns fresh copies of the models every deployment serves.
func BuiltinModels() []*Model {
	return []*Model{
		{
			Name:  ModelDevelopMrRobot,
			Table: "develop_mr_robot_configs",
			Fields: []Field{
				{Name: "host", Type: FieldTypeString},
				{Name: "port", Type: FieldTypeInteger},
				{Name: "database", Type: FieldTypeString},
				{Name: "user", Type: FieldTypeString},
				{Name: "password", Type: FieldTypeString},
				{Name: "schema", Type: FieldTypeString},
			},
		},
		{
			Name:  ModelTestVPN,
			Table: "test_vpn_configs",
			Fields: []Field{
				{Name: "host", Type: FieldTypeString},
				{Name: "port", Type: FieldTypeInteger},
				{Name: "virtualhost", Type: FieldTypeString},
				{Name: "user", Type: FieldTypeString},
				{Name: "password", Type: FieldTypeString},
			},
		},
	}
}

// NewBuiltinRegistry returns a registry holding the built-in models plus any extras.
func NewBuiltinRegistry(extra ...*Model) (*Registry, error) {
	return NewRegistry(append(BuiltinModels(), extra...)...)
}
