// Package domain contains the core entities of the coach: vocabulary items,
// per-item progress records, the append-only activity history and weekly
// plans. It is independent of any specific infrastructure or delivery
// mechanism; persistence lives in the store implementations and scheduling
// rules live in the mastery subpackage.
package domain
