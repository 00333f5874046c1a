// Package secret expands secret references in configuration text.
//
// Configuration files reference credentials through ${VAR} environment
// placeholders instead of carrying them inline. Expansion is strict: a
// placeholder naming an unset variable fails the load rather than producing
// an empty credential that only surfaces later as a failing check.
package secret
