// Package classifier holds the decision logic for labelling rulings.
//
// Outcome classification is rule based: a catalog of "declarar ... FUNDADO"
// style patterns is matched against the full text, the rightmost match of
// each pattern is scored by its relative position, scores are collapsed onto
// the outcome vocabulary and a three stage cascade picks a label.
//
// Subject-matter classification works on the first page header: the subject
// line is embedded elsewhere and the nearest indexed neighbor decides the
// label, unless the header marks the case as a queja.
package classifier
