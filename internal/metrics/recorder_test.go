package metrics

import "time"

type testRecorder struct {
	chatDurations map[string]int
	chatResults   map[string]map[ResultLabel]int
	searches      int
	storeOps      map[string]int
	streams       int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{chatDurations: map[string]int{}, chatResults: map[string]map[ResultLabel]int{}, storeOps: map[string]int{}}
}

func (t *testRecorder) ObserveChatDuration(model string, _ time.Duration) {
	t.chatDurations[model]++
}
func (t *testRecorder) IncChatResult(model string, result ResultLabel) {
	m, ok := t.chatResults[model]
	if !ok {
		m = map[ResultLabel]int{}
		t.chatResults[model] = m
	}
	m[result]++
}
func (t *testRecorder) ObserveSearchDuration(_ time.Duration, _ bool) { t.searches++ }
func (t *testRecorder) IncSearchResult(_ bool)                        { t.searches++ }
func (t *testRecorder) IncStoreOperation(store, op string)            { t.storeOps[store+"/"+op]++ }
func (t *testRecorder) SetActiveStreams(n int)                        { t.streams = n }

var _ Recorder = (*testRecorder)(nil)
var _ Recorder = NoopRecorder{}
