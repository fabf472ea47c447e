package domain

// Field describes one queryable search field of the legacy dialect.
type Field struct {
	Name    string
	Aliases []string
	// Single marks fields that carry at most one value per request.
	Single bool
	// Bool marks fields whose values must be "true" or "false".
	Bool bool
}

// queryableFields is the field registry. Order matters: set fields are
// echoed back in fq in this order.
var queryableFields = []Field{
	{Name: "id", Single: true},
	{Name: "dataset_id", Single: true},
	{Name: "access"},
	{Name: "activity"},
	{Name: "activity_drs"},
	{Name: "activity_id"},
	{Name: "atmos_grid_resolution"},
	{Name: "branch_method"},
	{Name: "campaign"},
	{Name: "Campaign"},
	{Name: "catalog_version"},
	{Name: "cf_standard_name"},
	{Name: "cmor_table"},
	{Name: "contact"},
	{Name: "Conventions"},
	{Name: "creation_date"},
	{Name: "data_node"},
	{Name: "data_specs_version"},
	{Name: "data_structure"},
	{Name: "data_type"},
	{Name: "dataset_category"},
	{Name: "dataset_status"},
	{Name: "dataset_version"},
	{Name: "dataset_version_number"},
	{Name: "datetime_end"},
	{Name: "deprecated"},
	{Name: "directory_format_template_"},
	{Name: "ensemble"},
	{Name: "ensemble_member"},
	{Name: "ensemble_member_"},
	{Name: "experiment"},
	{Name: "experiment_family"},
	{Name: "experiment_id"},
	{Name: "experiment_title"},
	{Name: "forcing"},
	{Name: "frequency"},
	{Name: "grid"},
	{Name: "grid_label"},
	{Name: "grid_resolution"},
	{Name: "height_units", Aliases: []string{"height-units"}},
	{Name: "index_node"},
	{Name: "institute"},
	{Name: "institution"},
	{Name: "institution_id"},
	{Name: "instrument"},
	{Name: "land_grid_resolution"},
	{Name: "master_gateway"},
	{Name: "member_id"},
	{Name: "metadata_format"},
	{Name: "mip_era"},
	{Name: "model"},
	{Name: "model_cohort"},
	{Name: "model_version"},
	{Name: "nominal_resolution"},
	{Name: "ocean_grid_resolution"},
	{Name: "Period"},
	{Name: "period"},
	{Name: "processing_level"},
	{Name: "product"},
	{Name: "project", Single: true},
	{Name: "quality_control_flags"},
	{Name: "range"},
	{Name: "realm"},
	{Name: "realm_drs"},
	{Name: "region"},
	{Name: "regridding"},
	{Name: "run_category"},
	{Name: "Science_Driver", Aliases: []string{"Science Driver"}},
	{Name: "science_driver_", Aliases: []string{"science driver"}},
	{Name: "science_driver"},
	{Name: "seaice_grid_resolution"},
	{Name: "set_name"},
	{Name: "short_description"},
	{Name: "source"},
	{Name: "source_id"},
	{Name: "source_type"},
	{Name: "source_version"},
	{Name: "source_version_number"},
	{Name: "status"},
	{Name: "sub_experiment_id"},
	{Name: "table"},
	{Name: "table_id"},
	{Name: "target_mip"},
	{Name: "target_mip_list"},
	{Name: "target_mip_listsource"},
	{Name: "target_mip_single"},
	{Name: "time_frequency"},
	{Name: "tuning"},
	{Name: "variable"},
	{Name: "variable_id"},
	{Name: "variable_label"},
	{Name: "variable_long_name"},
	{Name: "variant_label"},
	{Name: "version"},
	{Name: "versionnum"},
	{Name: "year_of_aggregation"},
	{Name: "type", Single: true},
	{Name: "latest", Single: true, Bool: true},
}

// metaParams are request parameters that shape the search rather than
// filter records. They never appear in fq.
var metaParams = map[string]struct{}{
	"query":       {},
	"format":      {},
	"limit":       {},
	"offset":      {},
	"facets":      {},
	"from":        {},
	"to":          {},
	"min_version": {},
	"max_version": {},
	"replica":     {},
	"distrib":     {},
	"bbox":        {},
	"start":       {},
	"end":         {},
}

var fieldByParam = func() map[string]Field {
	m := make(map[string]Field, len(queryableFields))
	for _, f := range queryableFields {
		m[f.Name] = f
		for _, a := range f.Aliases {
			m[a] = f
		}
	}
	return m
}()

// QueryableFields returns the field registry in echo order.
func QueryableFields() []Field {
	return queryableFields
}

// ResolveQueryable maps a request parameter name, or one of its aliases,
// to its canonical field.
func ResolveQueryable(param string) (Field, bool) {
	f, ok := fieldByParam[param]
	return f, ok
}

// IsMeta reports whether the parameter is a non-filtering search control.
func IsMeta(param string) bool {
	_, ok := metaParams[param]
	return ok
}
