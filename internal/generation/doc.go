// Package generation defines the boundary to the external text-generation
// backend. PlanGenerator produces weekly plans and AttemptJudge grades free
// text practice attempts.
//
// Callers normally wrap a backend with WithPlanFallback and WithJudgeFallback
// so that an unavailable backend degrades to a built-in plan or an echoed
// judgement instead of an error.
package generation
