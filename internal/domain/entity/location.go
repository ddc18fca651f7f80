package entity

// Location bodega o sucursal del registro de ubicaciones (colaborador externo).
type Location struct {
	ID     string
	Name   string
	Active bool
}
