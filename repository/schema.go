package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is one idempotent schema statement
type Migration struct {
	Name string
	SQL  string
}

// listingColumns are the text columns copied from the upstream listing, in
// insert order after ndetalle
var listingColumns = []string{
	"acto_procesal", "anio_expe", "anio_recurso_expe", "anio_resolucion",
	"codigo_distrito", "codigo_organo", "codigo_recurso", "desc_documento",
	"desc_tipo_recurso_expe", "distrito_judicial_expe", "especialidad_expe",
	"fecha_ingreso_expe", "fecha_resolucion", "instancia_detalle", "instancia_expe",
	"juez_firma_resolucion", "mostrar_botones", "nexpedeinte",
	"norma_derecho_interno_expe", "numero_en_letras", "numero_recurso_expe",
	"numero_resolucion", "organo_detalle", "organo_expe", "proceso_exp",
	"sede_detalle", "sumilla", "tipo_documento", "xformato_expe", "url",
	"clasificacion", "subclasificacion", "fecha_real",
}

func documentTableSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS sentencias_y_autos (\n    ndetalle TEXT PRIMARY KEY")
	for _, col := range listingColumns {
		b.WriteString(",\n    ")
		b.WriteString(col)
		b.WriteString(" TEXT")
	}
	b.WriteString("\n)")
	return b.String()
}

// Migrations returns the statements that create every table the engine uses
func Migrations() []Migration {
	return []Migration{
		{Name: "sentencias_y_autos table", SQL: documentTableSQL()},
		{
			Name: "jueces table",
			SQL: `CREATE TABLE IF NOT EXISTS jueces (
    codigo TEXT PRIMARY KEY,
    nombre_juez TEXT
)`,
		},
		{
			Name: "sentencias_jueces table",
			SQL: `CREATE TABLE IF NOT EXISTS sentencias_jueces (
    ndetalle TEXT NOT NULL REFERENCES sentencias_y_autos(ndetalle) ON DELETE CASCADE,
    codigo TEXT NOT NULL REFERENCES jueces(codigo),
    PRIMARY KEY (ndetalle, codigo)
)`,
		},
		{
			Name: "classification_runs table",
			SQL: `CREATE TABLE IF NOT EXISTS classification_runs (
    id UUID PRIMARY KEY,
    pass VARCHAR(20) NOT NULL CHECK (pass IN ('ingest', 'route', 'outcome', 'materia', 'seed')),
    status VARCHAR(20) NOT NULL CHECK (status IN ('in_progress', 'completed', 'failed')),
    counters JSONB NOT NULL DEFAULT '{}'::jsonb,
    error_message TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMP
)`,
		},
		{
			Name: "index: unclassified documents",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_sentencias_unclassified ON sentencias_y_autos(ndetalle) WHERE url IS NOT NULL AND clasificacion IS NULL",
		},
		{
			Name: "index: outcome and body",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_sentencias_outcome_body ON sentencias_y_autos(clasificacion, organo_detalle)",
		},
		{
			Name: "index: runs by pass",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_classification_runs_pass ON classification_runs(pass, created_at DESC)",
		},
	}
}

// ApplyMigrations runs every migration in order, calling done after each one
func ApplyMigrations(ctx context.Context, db *pgxpool.Pool, done func(Migration)) error {
	for _, m := range Migrations() {
		if _, err := db.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("failed to apply %s: %w", m.Name, err)
		}
		if done != nil {
			done(m)
		}
	}
	return nil
}
