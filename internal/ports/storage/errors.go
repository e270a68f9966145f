// Package storage define los errores que comparten los repositorios y los servicios.
package storage

import "errors"

// ErrNotFound lo devuelven los repos cuando la fila no existe (o es de otro taller).
// Cualquier otro error de repo es una falla real y no debe leerse como "no existe".
var ErrNotFound = errors.New("not found")
