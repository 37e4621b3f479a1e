package dto

// UsuarioSugerencia is one typeahead hit in the user search box.
type UsuarioSugerencia struct {
	ID             string `json:"id"`
	PrimerNombre   string `json:"primerNombre"`
	PrimerApellido string `json:"primerApellido"`
	RUT            string `json:"rut"`
}

// ItemSugerencia is one available copy offered by the loan form search.
type ItemSugerencia struct {
	ID     string `json:"id"`
	Tipo   string `json:"tipo"` // ejemplar | recurso
	Nombre string `json:"nombre"`
}

// LibroSugerencia is one catalog title hit.
type LibroSugerencia struct {
	ID     string `json:"id"`
	Titulo string `json:"titulo"`
	Autor  string `json:"autor"`
}

// CopiaDisponibleResponse returns the first free copy of a title/resource.
type CopiaDisponibleResponse struct {
	CopiaID string `json:"copiaId"`
}
