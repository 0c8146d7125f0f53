package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/meridian-gis/formkit"
	"github.com/meridian-gis/formkit/internal"
)

type initDBOptions struct {
	host     string
	port     int
	database string
	user     string
	password string
	sslMode  string
	fieldDir string
	dryRun   bool
}

func runInitDB(args []string) error {
	flags := flag.NewFlagSet("init-db", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: formkit-tools init-db [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	opts := initDBOptions{}
	flags.StringVar(&opts.host, "db-host", getenvDefault("DB_HOST", "localhost"), "database host")
	flags.IntVar(&opts.port, "db-port", getenvDefaultInt("DB_PORT", 5432), "database port")
	flags.StringVar(&opts.database, "db-name", getenvDefault("DB_NAME", "formkit"), "database name")
	flags.StringVar(&opts.user, "db-user", getenvDefault("DB_USER", "postgres"), "database user")
	flags.StringVar(&opts.password, "db-password", getenvDefault("DB_PASSWORD", "postgres"), "database password")
	flags.StringVar(&opts.sslMode, "db-ssl-mode", getenvDefault("DB_SSL_MODE", "disable"), "database sslmode")
	flags.StringVar(&opts.fieldDir, "field-dir", getenvDefault("FIELD_DIR", "./fields"), "directory with <layer>_fields.json files")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print DDL without executing")

	if err := flags.Parse(args); err != nil {
		return err
	}

	provider, err := internal.NewFileSchemaProvider(opts.fieldDir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var pool *pgxpool.Pool
	if !opts.dryRun {
		connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			opts.host, opts.port, opts.user, opts.password, opts.database, opts.sslMode)
		pool, err = pgxpool.New(ctx, connString)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer pool.Close()
	}

	for _, layer := range provider.ListLayers() {
		fields, err := provider.GetFields(ctx, layer)
		if err != nil {
			return err
		}
		ddl := layerDDL(layer, fields)
		if opts.dryRun {
			fmt.Println(ddl + ";")
			continue
		}
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table for layer %q: %w", layer, err)
		}
		zap.S().Infow("created feature table", "layer", layer, "fields", len(fields))
	}
	return nil
}

// layerDDL renders the CREATE TABLE statement for one layer's feature
// table: uuid primary key, the attribute columns, and the geometry pair.
func layerDDL(layer string, fields []formkit.Field) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(pgx.Identifier{layer}.Sanitize())
	b.WriteString(" (\n\tid uuid PRIMARY KEY")
	for _, f := range fields {
		b.WriteString(",\n\t")
		b.WriteString(pgx.Identifier{f.Name}.Sanitize())
		b.WriteString(" ")
		b.WriteString(columnType(f.Type))
	}
	b.WriteString(",\n\tgeom_lat double precision")
	b.WriteString(",\n\tgeom_lon double precision\n)")
	return b.String()
}

func columnType(t formkit.FieldType) string {
	switch t {
	case formkit.FieldTypeInteger:
		return "bigint"
	case formkit.FieldTypeReal:
		return "double precision"
	case formkit.FieldTypeDate, formkit.FieldTypeTime, formkit.FieldTypeDateTime:
		// temporal values are stored as epoch milliseconds
		return "bigint"
	case formkit.FieldTypeBinary:
		return "bytea"
	case formkit.FieldTypeStringList, formkit.FieldTypeIntegerList, formkit.FieldTypeRealList:
		return "jsonb"
	default:
		return "text"
	}
}

func getenvDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
