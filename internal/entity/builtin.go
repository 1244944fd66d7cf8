package entity

// ScalarType names a primitive value type.
type ScalarType string

const (
	ScalarString    ScalarType = "String"
	ScalarInteger   ScalarType = "Integer"
	ScalarFloat     ScalarType = "Float"
	ScalarBoolean   ScalarType = "Boolean"
	ScalarID        ScalarType = "ID"
	ScalarTimestamp ScalarType = "Timestamp"
	ScalarJSON      ScalarType = "JSON"
)

var scalarDescriptions = map[ScalarType]string{
	ScalarString:    "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
	ScalarInteger:   "The `Integer` scalar type represents non-fractional signed whole numeric values.",
	ScalarFloat:     "The `Float` scalar type represents signed double-precision fractional values.",
	ScalarBoolean:   "The `Boolean` scalar type represents `true` or `false`.",
	ScalarID:        "The `ID` scalar type represents a unique identifier.",
	ScalarTimestamp: "The `Timestamp` scalar type represents a point in time, serialized as an RFC 3339 string.",
	ScalarJSON:      "The `JSON` scalar type represents an arbitrary serialized JSON value.",
}

// KnownScalar reports whether s is a declared scalar type.
func KnownScalar(s ScalarType) bool {
	_, ok := scalarDescriptions[s]
	return ok
}

// ScalarDescription returns the doc string for a declared scalar type.
func ScalarDescription(s ScalarType) string { return scalarDescriptions[s] }
