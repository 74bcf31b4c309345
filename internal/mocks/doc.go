// Package mocks holds test doubles shared across packages: the access token
// service and the plan and judgement oracles.
//
// Each mock has a function field per method for tests that need custom
// behavior, falls back to fixed return values otherwise, and records its
// calls where tests assert on them:
//
//	judge := mocks.NewMockJudgeAccepting()
//	svc, _ := service.NewCoachService(backend, nil, judge, nil)
//	// ...
//	assert.Len(t, judge.Calls(), 1)
package mocks
