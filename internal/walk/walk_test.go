package walk_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/walk"
	"github.com/guludo/yape/internal/yapeop"
)

func TestWalkDataOpCarriesPayload(t *testing.T) {
	events := walk.Walk(yapeop.Data{Payload: 42})
	require.Len(t, events, 2)
	require.Equal(t, walk.OpType, events[0].Type)
	require.Equal(t, "Data", events[0].OpName)
	require.Equal(t, walk.DataOp, events[1].Type)
	require.Equal(t, 42, events[1].Value)
}

func TestWalkSentinels(t *testing.T) {
	events := walk.Walk(yapeop.Call{
		Fn:     nil,
		Args:   []any{yapeop.CTX, yapeop.UNSET},
		Kwargs: yapeop.NewDict(),
	})

	var types []walk.EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	require.Contains(t, types, walk.EvCTX)
	require.Contains(t, types, walk.EvUNSET)
}

func TestWalkDictPreservesInsertionOrder(t *testing.T) {
	d := yapeop.NewDict("z", 1, "a", 2, "m", 3)
	events := walk.Walk(yapeop.Call{Args: nil, Kwargs: d})

	var dictEvent *walk.Event
	for i := range events {
		if events[i].Type == walk.EvDict {
			dictEvent = &events[i]
			break
		}
	}
	require.NotNil(t, dictEvent)
	require.Equal(t, []string{"z", "a", "m"}, dictEvent.Keys)
}

// TestWalkAliasingDeduplicates verifies that the same shared slice value
// referenced twice emits a ValueId only once and a Ref on the repeat
// visit, guaranteeing a finite event stream for shared/cyclic structure
// (spec 4.B). The args tuple and the kwargs dict are reference values of
// their own, so each gets a ValueId too: three in all, one Ref.
func TestWalkAliasingDeduplicates(t *testing.T) {
	shared := yapeop.List{1, 2, 3}
	events := walk.Walk(yapeop.Call{
		Args:   []any{shared, shared},
		Kwargs: yapeop.NewDict(),
	})

	var valueIDs, refs int
	for _, e := range events {
		switch e.Type {
		case walk.ValueID:
			valueIDs++
		case walk.Ref:
			refs++
		}
	}
	require.Equal(t, 3, valueIDs)
	require.Equal(t, 1, refs)
}

func TestWalkNilIsOther(t *testing.T) {
	events := walk.Walk(yapeop.Value{V: nil})
	require.Len(t, events, 2)
	require.Equal(t, walk.EvOther, events[1].Type)
	require.Nil(t, events[1].Value)
}

func TestWalkListVsTupleAreDistinctEventTypes(t *testing.T) {
	listEvents := walk.Walk(yapeop.Value{V: yapeop.List{1, 2}})
	tupleEvents := walk.Walk(yapeop.Value{V: yapeop.Tuple{1, 2}})
	require.Equal(t, walk.EvList, listEvents[2].Type)
	require.Equal(t, walk.EvTuple, tupleEvents[2].Type)
}

func TestWalkFuncRefWalksGlobals(t *testing.T) {
	globals := yapeop.NewDict("x", 1)
	ref := &yapeop.FuncRef{Name: "pkg.Fn", Globals: globals}
	events := walk.Walk(yapeop.Call{Fn: ref, Kwargs: yapeop.NewDict()})

	var sawFunc, sawDict bool
	for _, e := range events {
		if e.Type == walk.EvFunc {
			sawFunc = true
			require.Equal(t, "pkg.Fn", e.FuncName)
		}
		if e.Type == walk.EvDict {
			sawDict = true
		}
	}
	require.True(t, sawFunc)
	require.True(t, sawDict)
}
