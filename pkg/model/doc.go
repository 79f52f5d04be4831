// Package model maps raw, schemaless entities onto typed records.
//
// A model kind is declared once at startup by registering its properties:
//
//	reg := model.NewRegistry(store, model.WithDataset("app"))
//	person, err := reg.Register("Person",
//	    model.Must(model.NewString("name", model.Required())),
//	    model.Must(model.NewInteger("age")),
//	    model.Must(model.NewDateTime("created", model.AutoNowAdd())),
//	)
//
// Every value assigned to an instance runs through the owning property's
// pipeline: Validate, then ToBase, with the result stored in the instance's
// raw mapping under the property's storage name. Reading runs FromBase.
// Values fetched from the store are first decoded with FromDB. A nil value
// is the absent-value sentinel and passes through every conversion stage.
package model
