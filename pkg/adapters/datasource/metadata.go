package datasource

// TableMetadata identifies one table of the records store. Each table becomes a
// lexicon module.
type TableMetadata struct {
	SchemaName string
	TableName  string
}

// ColumnMetadata describes one column as the store reports it. DataType is the
// store's own type name, lower-cased.
type ColumnMetadata struct {
	ColumnName      string
	DataType        string
	IsNullable      bool
	IsPrimaryKey    bool
	OrdinalPosition int
}
