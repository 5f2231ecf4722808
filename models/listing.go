package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString is a listing field that may arrive as a JSON string, number,
// boolean or null. It is stored as text.
type FlexString struct {
	Value string
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = FlexString{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString{Value: s, Valid: true}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = FlexString{Value: strconv.FormatBool(b), Valid: true}
	case '{', '[':
		return fmt.Errorf("unexpected JSON value %s for text field", data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString{Value: n.String(), Valid: true}
	}
	return nil
}

// Ptr returns the value as a nullable string for the database driver
func (f FlexString) Ptr() *string {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// Judge represents a magistrate signing a ruling
type Judge struct {
	Code FlexString `json:"codigo"`
	Name FlexString `json:"valor"`
}

// Listing represents one ruling record from the court listing export
type Listing struct {
	ID                    FlexString `json:"ndetalle"`
	ActoProcesal          FlexString `json:"actoProcesal"`
	AnioExpe              FlexString `json:"anioExpe"`
	AnioRecursoExpe       FlexString `json:"anioRecursoExpe"`
	AnioResolucion        FlexString `json:"anioResolucion"`
	CodigoDistrito        FlexString `json:"codigoDistrito"`
	CodigoOrgano          FlexString `json:"codigoOrgano"`
	CodigoRecurso         FlexString `json:"codigoRecurso"`
	DescDocumento         FlexString `json:"descDocumento"`
	DescTipoRecursoExpe   FlexString `json:"descTipoRecursoExpe"`
	DistritoJudicialExpe  FlexString `json:"distritoJudicialExpe"`
	EspecialidadExpe      FlexString `json:"especialidadExpe"`
	FechaIngresoExpe      FlexString `json:"fechaIngresoExpe"`
	FechaResolucion       FlexString `json:"fechaResolucion"`
	InstanciaDetalle      FlexString `json:"instanciaDetalle"`
	InstanciaExpe         FlexString `json:"instanciaExpe"`
	JuezFirmaResolucion   FlexString `json:"juezFirmaResolucion"`
	MostrarBotones        FlexString `json:"mostrarBotones"`
	Expediente            FlexString `json:"nexpediente"`
	NormaDerechoInterno   FlexString `json:"normaDerechoInternoExpe"`
	NumeroEnLetras        FlexString `json:"numeroEnLetras"`
	NumeroRecursoExpe     FlexString `json:"numeroRecursoExpe"`
	NumeroResolucion      FlexString `json:"numeroResolucion"`
	OrganoDetalle         FlexString `json:"organoDetalle"`
	OrganoExpe            FlexString `json:"organoExpe"`
	ProcesoExp            FlexString `json:"procesoExp"`
	SedeDetalle           FlexString `json:"sedeDetalle"`
	Sumilla               FlexString `json:"sumilla"`
	TipoDocumento         FlexString `json:"tipoDocumento"`
	FormatoExpe           FlexString `json:"xformatoExpe"`
	URL                   FlexString `json:"url"`
	Clasificacion         FlexString `json:"clasificacion"`
	Subclasificacion      FlexString `json:"subclasificacion"`
	FechaReal             FlexString `json:"fecha_real"`
	Magistrados           []Judge    `json:"magistrados"`
}

// ListingPage is one page of the listing export
type ListingPage struct {
	Lista []json.RawMessage `json:"lista"`
}
