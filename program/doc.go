// Package program defines program identifiers, parsed programs and the
// error taxonomy shared by resolvers and credential handling.
//
// A Program is immutable once parsed. Its import list is kept in
// declaration order so that import resolution can report results in the
// same order the program declares them.
package program
