package language

import "github.com/vektah/gqlparser/v2/ast"

// Aliases for the gqlparser AST nodes the loader reads and the renderer builds.
type (
	SchemaDocument     = ast.SchemaDocument
	SchemaDefinition   = ast.SchemaDefinition
	Definition         = ast.Definition
	FieldDefinition    = ast.FieldDefinition
	ArgumentDefinition = ast.ArgumentDefinition
	Directive          = ast.Directive
	Argument           = ast.Argument
	Value              = ast.Value
	Type               = ast.Type
	Position           = ast.Position

	FieldList                   = ast.FieldList
	OperationTypeDefinitionList = ast.OperationTypeDefinitionList
)

const QueryOperation = ast.Query

const (
	Object    = ast.Object
	Interface = ast.Interface
	Scalar    = ast.Scalar

	IntValue     = ast.IntValue
	StringValue  = ast.StringValue
	BlockValue   = ast.BlockValue
	BooleanValue = ast.BooleanValue
	ListValue    = ast.ListValue
	ObjectValue  = ast.ObjectValue
)
