package report

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiguard/internal/engine/model"
)

func record(typ, member string, line int, element string, kind model.Kind) ViolationRecord {
	ref := model.ElementRef{Kind: model.ElementType, Type: element}
	return ViolationRecord{
		Kind:     kind,
		Element:  ref,
		Origin:   ref,
		Location: model.Location{Type: typ, Member: member, Line: line},
	}
}

func TestCollectorDeduplicates(t *testing.T) {
	c := NewCollector()
	a := record("p.C", "run()", 10, "api.T", model.Instantiate)
	dup := a
	dup.Via = "api.Other"
	c.Add([]ViolationRecord{a, dup}, nil)
	c.Add([]ViolationRecord{a}, nil)

	otherLine := record("p.C", "run()", 11, "api.T", model.Instantiate)
	otherKind := record("p.C", "run()", 10, "api.T", model.Reference)
	c.Add([]ViolationRecord{otherLine, otherKind}, nil)

	res := c.Result()
	require.Len(t, res.Violations, 3)
	assert.Equal(t, "", res.Violations[0].Via, "first record wins")
	assert.Equal(t, map[model.Kind]int{model.Instantiate: 2, model.Reference: 1}, res.Count())
}

func TestCollectorSortsDeterministically(t *testing.T) {
	c := NewCollector()
	c.Add([]ViolationRecord{
		record("p.B", "", 0, "api.I", model.Implement),
		record("p.A", "m()", 5, "api.T", model.Reference),
		record("p.A", "", 0, "api.S", model.Extend),
	}, []model.Notice{
		{Kind: model.NoticeUnresolved, Subject: "lib.X"},
		{Kind: model.NoticeUnparseable, Subject: "bad.jar"},
		{Kind: model.NoticeUnresolved, Subject: "lib.X"},
	})
	res := c.Result()

	var got []string
	for _, v := range res.Violations {
		got = append(got, v.Location.Key()+" "+v.Element.ID())
	}
	assert.Equal(t, []string{
		"p.A#@0 api.S",
		"p.A#m()@5 api.T",
		"p.B#@0 api.I",
	}, got)
	require.Len(t, res.Notices, 2)
	assert.Equal(t, model.NoticeUnparseable, res.Notices[0].Kind)
}

func TestCollectorConcurrentAdd(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				c.Add([]ViolationRecord{record(fmt.Sprintf("p.T%d", i), "", 0, "api.I", model.Implement)}, nil)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, c.Result().Violations, 50)
}

func TestMessage(t *testing.T) {
	v := ViolationRecord{
		Kind:     model.Implement,
		Element:  model.ElementRef{Kind: model.ElementType, Type: "api.I"},
		Origin:   model.ElementRef{Kind: model.ElementType, Type: "api.I"},
		Via:      "api.J",
		Location: model.Location{Type: "p.C"},
	}
	assert.Equal(t, "p.C illegally implements api.I via api.J", v.Message())

	m := model.ElementRef{Kind: model.ElementMethod, Type: "api.Impl", Name: "run", Descriptor: "()V"}
	v = ViolationRecord{
		Kind:     model.Reference,
		Element:  m,
		Origin:   model.ElementRef{Kind: model.ElementMethod, Type: "api.I", Name: "run", Descriptor: "()V"},
		Location: model.Location{Type: "p.C", Member: "go()", Line: 3},
	}
	assert.Equal(t, "p.C.go() illegally references api.Impl.run() (declared on api.I.run())", v.Message())
	assert.Len(t, v.Origins(), 1)
}
