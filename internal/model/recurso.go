package model

import (
	"time"

	"github.com/google/uuid"
)

// RecursoCRA is a loanable resource definition of the learning-resource
// center (tablets, chess sets, lab kits); physical units live in
// InstanciaRecurso.
type RecursoCRA struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"index;not null"`
	Categoria string    `gorm:"not null"`
	// Sede: "Media" | "Básica"
	Sede        string `gorm:"type:varchar(10);not null"`
	Descripcion *string
	Ubicacion   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (RecursoCRA) TableName() string { return "recursos_cra" }

// InstanciaRecurso is one trackable unit of a RecursoCRA, identified by a
// generated internal code (RBB-001, RBM-042, ...).
type InstanciaRecurso struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RecursoID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CodigoInterno string     `gorm:"uniqueIndex;not null"`
	Estado        EstadoItem `gorm:"type:varchar(20);not null;default:'disponible'"`
	Observaciones *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Recurso *RecursoCRA `gorm:"foreignKey:RecursoID"`
}

func (InstanciaRecurso) TableName() string { return "instancias_recurso" }
