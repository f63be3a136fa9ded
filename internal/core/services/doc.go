// Package services implements the driving port interfaces.
// Services contain the core business logic: the query pipeline that
// builds an index from the corpus and answers questions from it, the
// rebuilder that follows corpus changes, and settings and history access.
//
// Services talk to the outside world only through driven ports, which
// are injected at construction. They never read global state.
package services
