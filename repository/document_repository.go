package repository

import (
	"context"
	"errors"
	"fmt"

	"casillero-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDocumentNotFound is returned when no row matches the document id
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository handles database operations for ruling records
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `ndetalle, COALESCE(url, ''), COALESCE(organo_detalle, ''), clasificacion, subclasificacion`

func scanDocument(row pgx.Row) (*models.Document, error) {
	doc := &models.Document{}
	var outcome *string
	err := row.Scan(&doc.ID, &doc.StorageKey, &doc.Body, &outcome, &doc.Materia)
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		label := models.OutcomeLabel(*outcome)
		doc.Outcome = &label
	}
	return doc, nil
}

func collectDocuments(rows pgx.Rows) ([]*models.Document, error) {
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetByID retrieves a document by its listing id
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM sentencias_y_autos WHERE ndetalle = $1`

	doc, err := scanDocument(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListUnclassified returns documents that have a storage pointer but no
// outcome label yet
func (r *DocumentRepository) ListUnclassified(ctx context.Context) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM sentencias_y_autos
		WHERE url IS NOT NULL AND clasificacion IS NULL
		ORDER BY ndetalle`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

// ListMateriaEligible returns documents with one of the given outcomes
// decided by one of the given bodies
func (r *DocumentRepository) ListMateriaEligible(ctx context.Context, outcomes []models.OutcomeLabel, bodies []string) ([]*models.Document, error) {
	labels := make([]string, len(outcomes))
	for i, o := range outcomes {
		labels[i] = string(o)
	}

	query := `
		SELECT ` + documentColumns + `
		FROM sentencias_y_autos
		WHERE url IS NOT NULL
		  AND clasificacion = ANY($1)
		  AND organo_detalle = ANY($2)
		ORDER BY ndetalle`

	rows, err := r.db.Query(ctx, query, labels, bodies)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

// SetOutcome stores the outcome label of a document
func (r *DocumentRepository) SetOutcome(ctx context.Context, id string, label models.OutcomeLabel) error {
	return r.setColumn(ctx, "clasificacion", id, string(label))
}

// SetMateria stores the subject-matter label of a document
func (r *DocumentRepository) SetMateria(ctx context.Context, id string, label string) error {
	return r.setColumn(ctx, "subclasificacion", id, label)
}

func (r *DocumentRepository) setColumn(ctx context.Context, column, id, value string) error {
	query := fmt.Sprintf(`UPDATE sentencias_y_autos SET %s = $1 WHERE ndetalle = $2`, pgx.Identifier{column}.Sanitize())

	tag, err := r.db.Exec(ctx, query, value, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// ListMissingPointer returns the ids of documents without a storage pointer
func (r *DocumentRepository) ListMissingPointer(ctx context.Context) (map[string]struct{}, error) {
	return r.idSet(ctx, `SELECT ndetalle FROM sentencias_y_autos WHERE url IS NULL`)
}

// SetStoragePointer records where the document's PDF lives. Existing
// pointers are never replaced.
func (r *DocumentRepository) SetStoragePointer(ctx context.Context, id, key string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE sentencias_y_autos SET url = $1 WHERE ndetalle = $2 AND url IS NULL`,
		key, id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExistingIDs returns the ids of every stored document
func (r *DocumentRepository) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	return r.idSet(ctx, `SELECT ndetalle FROM sentencias_y_autos`)
}

func (r *DocumentRepository) idSet(ctx context.Context, query string) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// InsertListing inserts a listing record and its judges in one transaction.
// Records whose id already exists are left untouched.
func (r *DocumentRepository) InsertListing(ctx context.Context, l *models.Listing) (bool, error) {
	if !l.ID.Valid || l.ID.Value == "" {
		return false, fmt.Errorf("listing has no ndetalle")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO sentencias_y_autos (
			ndetalle, acto_procesal, anio_expe, anio_recurso_expe,
			anio_resolucion, codigo_distrito, codigo_organo, codigo_recurso,
			desc_documento, desc_tipo_recurso_expe, distrito_judicial_expe,
			especialidad_expe, fecha_ingreso_expe, fecha_resolucion,
			instancia_detalle, instancia_expe, juez_firma_resolucion,
			mostrar_botones, nexpedeinte, norma_derecho_interno_expe,
			numero_en_letras, numero_recurso_expe, numero_resolucion,
			organo_detalle, organo_expe, proceso_exp, sede_detalle,
			sumilla, tipo_documento, xformato_expe, url, clasificacion,
			subclasificacion, fecha_real
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32,
			$33, $34)
		ON CONFLICT (ndetalle) DO NOTHING`

	tag, err := tx.Exec(ctx, query,
		l.ID.Value,
		l.ActoProcesal.Ptr(),
		l.AnioExpe.Ptr(),
		l.AnioRecursoExpe.Ptr(),
		l.AnioResolucion.Ptr(),
		l.CodigoDistrito.Ptr(),
		l.CodigoOrgano.Ptr(),
		l.CodigoRecurso.Ptr(),
		l.DescDocumento.Ptr(),
		l.DescTipoRecursoExpe.Ptr(),
		l.DistritoJudicialExpe.Ptr(),
		l.EspecialidadExpe.Ptr(),
		l.FechaIngresoExpe.Ptr(),
		l.FechaResolucion.Ptr(),
		l.InstanciaDetalle.Ptr(),
		l.InstanciaExpe.Ptr(),
		l.JuezFirmaResolucion.Ptr(),
		l.MostrarBotones.Ptr(),
		l.Expediente.Ptr(),
		l.NormaDerechoInterno.Ptr(),
		l.NumeroEnLetras.Ptr(),
		l.NumeroRecursoExpe.Ptr(),
		l.NumeroResolucion.Ptr(),
		l.OrganoDetalle.Ptr(),
		l.OrganoExpe.Ptr(),
		l.ProcesoExp.Ptr(),
		l.SedeDetalle.Ptr(),
		l.Sumilla.Ptr(),
		l.TipoDocumento.Ptr(),
		l.FormatoExpe.Ptr(),
		l.URL.Ptr(),
		l.Clasificacion.Ptr(),
		l.Subclasificacion.Ptr(),
		l.FechaReal.Ptr(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert listing %s: %w", l.ID.Value, err)
	}

	for _, j := range l.Magistrados {
		if j.Code.Value == "" || j.Name.Value == "" {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO jueces (codigo, nombre_juez) VALUES ($1, $2) ON CONFLICT (codigo) DO NOTHING`,
			j.Code.Value, j.Name.Value,
		); err != nil {
			return false, fmt.Errorf("failed to insert judge %s: %w", j.Code.Value, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO sentencias_jueces (ndetalle, codigo) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			l.ID.Value, j.Code.Value,
		); err != nil {
			return false, fmt.Errorf("failed to link judge %s: %w", j.Code.Value, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit listing %s: %w", l.ID.Value, err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountByOutcome returns how many documents carry each outcome label.
// Unlabeled documents are counted under the empty key.
func (r *DocumentRepository) CountByOutcome(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(clasificacion, ''), COUNT(*)
		FROM sentencias_y_autos
		GROUP BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var label string
		var n int64
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}
	return counts, rows.Err()
}
