package blueprint

import "github.com/hanpama/httpgraph/internal/valid"

// Violation constructors. Messages are surfaced to configuration authors and
// matched by tests; keep them stable.

func violationTypeNotFound[T any](name string) valid.Valid[T] {
	return valid.Failf[T]("Type %q not found", name)
}

func violationDuplicateType[T any](name string) valid.Valid[T] {
	return valid.Failf[T]("Type %q is defined more than once", name)
}

func violationDuplicateField[T any](field, typeName string) valid.Valid[T] {
	return valid.Failf[T]("Duplicate field %q found in type %q", field, typeName)
}

func violationNoFields[T any](typeName string) valid.Valid[T] {
	return valid.Failf[T]("Type %q must define at least one field", typeName)
}

func violationArgumentNotScalar[T any](arg, typeName string) valid.Valid[T] {
	return valid.Failf[T]("Argument %q must be a scalar, got %q", arg, typeName)
}

func violationExtendsCycle[T any]() valid.Valid[T] {
	return valid.Fail[T]("extends cycle detected")
}

func violationInterfaceConflict[T any](iface string) valid.Valid[T] {
	return valid.Failf[T]("Interface %q conflicts with a declared type", iface)
}

func violationEmptyInterface[T any](typeName string) valid.Valid[T] {
	return valid.Failf[T]("Type %q is extended but declares no fields of its own", typeName)
}

func violationNonNullable[T any]() valid.Valid[T] {
	return valid.Fail[T]("can not be used with non-nullable fields")
}

func violationConflictingDirectives[T any]() valid.Valid[T] {
	return valid.Fail[T]("@http and @unsafe can not be used together")
}

func violationUnsupportedMethod[T any](method string) valid.Valid[T] {
	return valid.Failf[T]("Method %q is not supported", method)
}

func violationNoBaseURL[T any]() valid.Valid[T] {
	return valid.Fail[T]("No base URL defined")
}

func violationInvalidBaseURL[T any](raw string) valid.Valid[T] {
	return valid.Failf[T]("Invalid base URL %q", raw)
}

func violationQueryInPath[T any]() valid.Valid[T] {
	return valid.Fail[T]("Query parameters must be declared with the query argument")
}

func violationTemplate[T any](err error) valid.Valid[T] {
	return valid.Fail[T](err.Error())
}

func violationUnknownArgument[T any](arg, typeName, field string) valid.Valid[T] {
	return valid.Failf[T]("Argument %q is not declared on %s.%s", arg, typeName, field)
}

func violationUnknownValueField[T any](field, typeName string) valid.Valid[T] {
	return valid.Failf[T]("Field %q not found on type %q", field, typeName)
}

func violationBatchKeyNotInQuery[T any](param string) valid.Valid[T] {
	return valid.Failf[T]("Batch key %q must match a query parameter", param)
}

func violationBatchKeyNotOnType[T any](field, typeName string) valid.Valid[T] {
	return valid.Failf[T]("Batch key field %q not found on type %q", field, typeName)
}

func violationBatchMethod[T any](method string) valid.Valid[T] {
	return valid.Failf[T]("Batching a %s request requires a body", method)
}

func violationBatchKeyNoSource[T any](param string) valid.Valid[T] {
	return valid.Failf[T]("Batch key %q must match a query parameter or a {{.value}} expression in a body list", param)
}

func violationBatchBodyValue[T any](expr string) valid.Valid[T] {
	return valid.Failf[T]("Expression %q must be inside a list in a batched body", expr)
}

func violationBodyNotAllowed[T any](method string) valid.Valid[T] {
	return valid.Failf[T]("%s requests can not have a body", method)
}

func violationInvalidHeaderName[T any](name string) valid.Valid[T] {
	return valid.Failf[T]("Invalid header name %q", name)
}

func violationInvalidHeaderValue[T any](name string) valid.Valid[T] {
	return valid.Failf[T]("Invalid value for header %q", name)
}

func violationInvalidHostname[T any](hostname string) valid.Valid[T] {
	return valid.Failf[T]("Hostname %q must be localhost or an IP address", hostname)
}

func violationInvalidPort[T any](port int) valid.Valid[T] {
	return valid.Failf[T]("Port %d is out of range", port)
}

func violationNegativeTimeout[T any](timeout int) valid.Valid[T] {
	return valid.Failf[T]("Timeout %d must not be negative", timeout)
}
