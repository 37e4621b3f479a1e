package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Libro is a catalog title; physical copies live in Ejemplar.
type Libro struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TipoDocumento    string    `gorm:"not null"`
	Titulo           string    `gorm:"index;not null"`
	Autor            string    `gorm:"index;not null"`
	LugarPublicacion string    `gorm:"not null"`
	Editorial        string    `gorm:"not null"`
	// Sede: "Media" | "Básica"
	Sede          string `gorm:"type:varchar(10);not null"`
	Pais          string `gorm:"not null;default:'Chile'"`
	NumeroPaginas *int
	Descriptores  []string `gorm:"serializer:json"`
	Idioma        *string
	ISBN          *string `gorm:"uniqueIndex;column:isbn"`
	CDD           *string `gorm:"column:cdd"`
	// Valor de reposición cobrado cuando un ejemplar vuelve como extraviado
	PrecioReposicion    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	AnioPublicacion     *int            `gorm:"column:anio_publicacion"`
	Edicion             *string
	UbicacionEstanteria *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (Libro) TableName() string { return "libros" }

// Ejemplar is one numbered physical copy of a Libro.
type Ejemplar struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LibroID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	NumeroCopia   int        `gorm:"not null"`
	Estado        EstadoItem `gorm:"type:varchar(20);not null;default:'disponible'"`
	Observaciones *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Libro *Libro `gorm:"foreignKey:LibroID"`
}

func (Ejemplar) TableName() string { return "ejemplares" }
