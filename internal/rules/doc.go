// Package rules evaluates autotile rule sets against neighboring cells.
//
// A RuleSet belongs to one tile reference (its identity). Each Rule lists
// neighbor conditions at relative offsets; the first rule whose conditions all
// hold decides the Output, otherwise the set's default applies.
//
// Conditions compare a neighbor's identity with the set's own identity:
//
//	Any       always passes
//	Match     neighbor is non-empty and has the same identity
//	NotMatch  neighbor is non-empty and has a different identity
//
// An empty neighbor does not satisfy NotMatch unless the set has
// EmptyIsDistinct, in which case Empty counts as its own identity and always
// differs. Match never passes against Empty.
//
// Neighbors may lie in other chunks. The Evaluator reads neighbors inside the
// owning chunk directly from that chunk and falls back to the Source for the
// rest; both paths return the same values.
//
// Evaluation is pure: resolving the same cell twice against unchanged
// neighbors yields the same Output.
package rules
