package catalog

import (
	"fmt"
	"strings"
)

// CreateDatabaseSQL renders an idempotent create-database statement.
func CreateDatabaseSQL(database string) string {
	return fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database)
}

// CreateSQL renders the idempotent create-table statement for the definition.
// Issuing it a second time against the same catalog is a no-op.
func (t TableDef) CreateSQL() string {
	var b strings.Builder

	fmt.Fprintf(&b, "CREATE EXTERNAL TABLE IF NOT EXISTS %s (\n", t.QualifiedName())
	b.WriteString(renderColumns(t.Columns))
	b.WriteString("\n)\n")

	if len(t.PartitionKeys) > 0 {
		b.WriteString("PARTITIONED BY (\n")
		b.WriteString(renderColumns(t.PartitionKeys))
		b.WriteString("\n)\n")
	}

	switch t.Format {
	case FormatJSON:
		b.WriteString("ROW FORMAT SERDE 'org.openx.data.jsonserde.JsonSerDe'\n")
		b.WriteString("WITH SERDEPROPERTIES (\n")
		b.WriteString("  'ignore.malformed.json' = 'true'\n")
		b.WriteString(")\n")
	case FormatParquet:
		b.WriteString("STORED AS PARQUET\n")
	}

	fmt.Fprintf(&b, "LOCATION '%s'", t.Location)

	if len(t.TableProperties) > 0 {
		b.WriteString("\nTBLPROPERTIES (\n")
		for i, p := range t.TableProperties {
			fmt.Fprintf(&b, "  '%s' = '%s'", p.Key, p.Value)
			if i < len(t.TableProperties)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(")")
	}

	return b.String()
}

// RepairSQL renders the partition discovery statement: it scans the table
// location and registers partition directories that the catalog has not seen.
func (t TableDef) RepairSQL() string {
	return fmt.Sprintf("MSCK REPAIR TABLE %s", t.QualifiedName())
}

func renderColumns(cols []Column) string {
	width := 0
	for _, c := range cols {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}

	lines := make([]string, len(cols))
	for i, c := range cols {
		lines[i] = fmt.Sprintf("  %-*s %s", width, c.Name, c.Type)
	}
	return strings.Join(lines, ",\n")
}
