package formstate

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formstate/pkg/activity"
	"github.com/goliatone/go-formstate/selector"
	"github.com/goliatone/go-formstate/validation"
)

func testObject() map[string]any {
	return map[string]any{
		"str": "test string",
		"bl":  true,
		"num": 100,
		"obj": map[string]any{
			"nestStr": "nest string",
			"obj2":    map[string]any{"doubleNestNum": 200},
		},
		"arr": []any{1, 2, 3},
		"objArr": []any{
			map[string]any{"nestBool": true},
			map[string]any{"nestBool": false},
		},
	}
}

func rootSelector(r selector.Accessor) any { return r }

func negative(values []any) string {
	if n, ok := values[0].(int); ok && n < 0 {
		return "must be 0 or positive"
	}
	return ""
}

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := New(testObject(), opts...)
	require.NoError(t, err)
	return store
}

type counter struct {
	calls  int
	values []any
}

func (c *counter) handle(value any) {
	c.calls++
	c.values = append(c.values, value)
}

func (c *counter) reset() {
	c.calls = 0
	c.values = nil
}

func (c *counter) last() any {
	if len(c.values) == 0 {
		return nil
	}
	return c.values[len(c.values)-1]
}

func TestSubscribeValueFiresImmediately(t *testing.T) {
	store := newStore(t)
	c := &counter{}

	sub, err := store.SubscribeValue(selector.Fields("obj", "obj2", "doubleNestNum"), c.handle)
	require.NoError(t, err)

	assert.Equal(t, 1, c.calls)
	assert.Equal(t, 200, c.last())
	assert.Equal(t, "obj/obj2/doubleNestNum", sub.Path())
	assert.NotEmpty(t, sub.ID())
}

func TestChangeValueNotifiesOnlyTheChangedPath(t *testing.T) {
	store := newStore(t)
	counters := map[string]*counter{}
	for _, field := range []string{"str", "bl", "num", "obj", "arr", "objArr"} {
		c := &counter{}
		counters[field] = c
		_, err := store.SubscribeValue(selector.Fields(field), c.handle)
		require.NoError(t, err)
		c.reset()
	}

	require.NoError(t, store.ChangeValue(selector.Fields("str"), "changed"))

	for field, c := range counters {
		if field == "str" {
			assert.Equal(t, 1, c.calls, field)
			assert.Equal(t, "changed", c.last())
			continue
		}
		assert.Equal(t, 0, c.calls, field)
	}
}

func TestChangeValuePropagatesToDescendantSubscribers(t *testing.T) {
	store := newStore(t)
	c := &counter{}
	_, err := store.SubscribeValue(selector.Fields("obj", "obj2", "doubleNestNum"), c.handle)
	require.NoError(t, err)
	c.reset()

	err = store.ChangeValue(selector.Fields("obj"), map[string]any{
		"nestStr": "replaced",
		"obj2":    map[string]any{"doubleNestNum": 7},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, c.calls)
	assert.Equal(t, 7, c.last())
}

func TestChangeValueDoesNotNotifyAncestorValueSubscribers(t *testing.T) {
	store := newStore(t)
	c := &counter{}
	_, err := store.SubscribeValue(selector.Fields("obj"), c.handle)
	require.NoError(t, err)
	c.reset()

	require.NoError(t, store.ChangeValue(selector.Fields("obj", "nestStr"), "x"))

	assert.Equal(t, 0, c.calls)
}

func TestSubscribeChildren(t *testing.T) {
	store := newStore(t)
	root := &counter{}
	obj := &counter{}
	_, err := store.SubscribeChildren(rootSelector, root.handle)
	require.NoError(t, err)
	_, err = store.SubscribeChildren(selector.Fields("obj"), obj.handle)
	require.NoError(t, err)
	assert.Equal(t, 1, root.calls)
	assert.Equal(t, 1, obj.calls)
	root.reset()
	obj.reset()

	require.NoError(t, store.ChangeValue(selector.Fields("obj", "obj2", "doubleNestNum"), 1))

	assert.Equal(t, 1, root.calls)
	assert.Equal(t, store.Snapshot(), root.last())
	assert.Equal(t, 1, obj.calls)
	assert.Equal(t, map[string]any{
		"nestStr": "nest string",
		"obj2":    map[string]any{"doubleNestNum": 1},
	}, obj.last())

	require.NoError(t, store.ChangeValue(selector.Fields("str"), "x"))
	assert.Equal(t, 2, root.calls)
	assert.Equal(t, 1, obj.calls)
}

func TestChangeValueUndefinedIntermediateLeavesStateUnchanged(t *testing.T) {
	store := newStore(t)
	c := &counter{}
	_, err := store.SubscribeChildren(rootSelector, c.handle)
	require.NoError(t, err)
	c.reset()
	before := store.Snapshot()

	err = store.ChangeValue(selector.Fields("missing", "child"), 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUndefinedIntermediate))
	assert.Equal(t, before, store.Snapshot())
	assert.Equal(t, 0, c.calls)
}

func TestChangeValueAppendsAndRejectsGaps(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.ChangeValue(selector.FromPath("arr/3"), 4))
	value, err := store.Value(selector.Fields("arr"))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3, 4}, value)

	err = store.ChangeValue(selector.FromPath("arr/9"), 10)
	require.Error(t, err)
}

func TestUnsupportedKeyKind(t *testing.T) {
	store := newStore(t)
	bad := func(r selector.Accessor) any { return r.Key(1.5) }

	_, err := store.SubscribeValue(bad, func(any) {})
	assert.True(t, errors.Is(err, ErrUnsupportedKeyKind))

	err = store.ChangeValue(bad, 1)
	assert.True(t, errors.Is(err, ErrUnsupportedKeyKind))

	_, err = store.SubscribeValue(selector.Fields("str"), nil)
	assert.Equal(t, ErrNilHandler, err)
}

func TestUnsubscribeDuringNotification(t *testing.T) {
	store := newStore(t)
	var second *Subscription
	var first *Subscription
	firstCalls, secondCalls := 0, 0
	armed := false

	var err error
	first, err = store.SubscribeValue(selector.Fields("str"), func(any) {
		firstCalls++
		if armed {
			first.Unsubscribe()
			second.Unsubscribe()
		}
	})
	require.NoError(t, err)
	second, err = store.SubscribeValue(selector.Fields("str"), func(any) { secondCalls++ })
	require.NoError(t, err)
	armed = true

	require.NoError(t, store.ChangeValue(selector.Fields("str"), "a"))
	require.NoError(t, store.ChangeValue(selector.Fields("str"), "b"))

	assert.Equal(t, 2, firstCalls)
	assert.Equal(t, 1, secondCalls)
	second.Unsubscribe()
}

func TestChangeValueRejectsReentrantChanges(t *testing.T) {
	store := newStore(t)
	armed := false
	var inner error
	_, err := store.SubscribeValue(selector.Fields("str"), func(any) {
		if armed {
			inner = store.ChangeValue(selector.Fields("num"), 1)
		}
	})
	require.NoError(t, err)
	armed = true

	require.NoError(t, store.ChangeValue(selector.Fields("str"), "x"))

	assert.Equal(t, ErrReentrantChange, inner)
	value, err := store.Value(selector.Fields("num"))
	require.NoError(t, err)
	assert.Equal(t, 100, value)

	require.NoError(t, store.ChangeValue(selector.Fields("num"), 2))
}

func TestValidationNotifiesErrorSubscribers(t *testing.T) {
	store, err := New(map[string]any{"arr": []any{1, 2, 3}})
	require.NoError(t, err)
	require.NoError(t, store.RegisterValidator([]selector.Selector{selector.FromPath("arr/0")}, negative))

	var arrErrs, rootErrs [][]validation.ValidationError
	_, err = store.SubscribeError(selector.Fields("arr"), func(errs []validation.ValidationError) {
		arrErrs = append(arrErrs, errs)
	})
	require.NoError(t, err)
	_, err = store.SubscribeError(rootSelector, func(errs []validation.ValidationError) {
		rootErrs = append(rootErrs, errs)
	})
	require.NoError(t, err)
	require.Len(t, arrErrs, 1)
	assert.Empty(t, arrErrs[0])

	require.NoError(t, store.RunAllValidation())
	require.Len(t, arrErrs, 2)
	assert.Empty(t, arrErrs[1])
	assert.False(t, store.HasErrors())

	require.NoError(t, store.ChangeValue(selector.FromPath("arr/1"), -1))

	require.Len(t, arrErrs, 3)
	assert.Equal(t, []validation.ValidationError{{Paths: []string{"arr/1"}, Errors: []string{"must be 0 or positive"}}}, arrErrs[2])
	assert.Equal(t, arrErrs[2], rootErrs[len(rootErrs)-1])
	assert.True(t, store.HasErrors())

	errs, err := store.Errors(selector.FromPath("arr/1"))
	require.NoError(t, err)
	assert.Len(t, errs, 1)
	errs, err = store.Errors(selector.FromPath("arr/0"))
	require.NoError(t, err)
	assert.Empty(t, errs)

	require.NoError(t, store.ChangeValue(selector.FromPath("arr/1"), 5))
	assert.Empty(t, arrErrs[len(arrErrs)-1])
	assert.False(t, store.HasErrors())
}

func TestValidatorsSeePostMutationValues(t *testing.T) {
	store := newStore(t)
	var seen []any
	require.NoError(t, store.RegisterValidator(
		[]selector.Selector{selector.Fields("str"), selector.Fields("num")},
		func(values []any) string {
			seen = values
			return ""
		},
	))

	require.NoError(t, store.ChangeValue(selector.Fields("num"), 5))

	assert.Equal(t, []any{"test string", 5}, seen)
}

func TestRegisterValidatorErrors(t *testing.T) {
	store := newStore(t)

	err := store.RegisterValidator(nil, negative)
	assert.True(t, errors.Is(err, validation.ErrNoSelection))

	err = store.RegisterValidator([]selector.Selector{selector.Fields("num")}, nil)
	assert.True(t, errors.Is(err, validation.ErrNilValidator))

	err = store.RegisterValidator([]selector.Selector{nil}, negative)
	assert.True(t, errors.Is(err, selector.ErrNilSelector))
}

func TestSubscribeSelection(t *testing.T) {
	store := newStore(t)
	c := &counter{}
	summary := func(r selector.Accessor) any {
		obj := r.Field("obj")
		return map[string]any{
			"name":  r.Field("str"),
			"count": r.Field("num"),
			"deep":  obj.Field("obj2").Field("doubleNestNum"),
		}
	}

	sub, err := store.SubscribeSelection(summary, c.handle)
	require.NoError(t, err)
	assert.Equal(t, "obj/obj2/doubleNestNum,str,num", sub.Path())
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, map[string]any{"name": "test string", "count": 100, "deep": 200}, c.last())

	require.NoError(t, store.ChangeValue(selector.Fields("num"), 1))
	assert.Equal(t, 2, c.calls)
	assert.Equal(t, 1, c.last().(map[string]any)["count"])

	require.NoError(t, store.ChangeValue(selector.Fields("bl"), false))
	assert.Equal(t, 2, c.calls)

	require.NoError(t, store.ChangeValue(selector.Fields("obj"), map[string]any{"obj2": map[string]any{"doubleNestNum": 3}}))
	assert.Equal(t, 3, c.calls)
	assert.Equal(t, 3, c.last().(map[string]any)["deep"])

	sub.Unsubscribe()
	require.NoError(t, store.ChangeValue(selector.Fields("num"), 2))
	assert.Equal(t, 3, c.calls)
}

func TestSnapshotsAndPayloadsDoNotAlias(t *testing.T) {
	store := newStore(t)
	var payload map[string]any
	_, err := store.SubscribeValue(selector.Fields("obj"), func(value any) {
		payload = value.(map[string]any)
	})
	require.NoError(t, err)

	snapshot := store.Snapshot().(map[string]any)
	snapshot["str"] = "mutated"
	payload["nestStr"] = "mutated"

	value, err := store.Value(selector.Fields("str"))
	require.NoError(t, err)
	assert.Equal(t, "test string", value)
	value, err = store.Value(selector.Fields("obj", "nestStr"))
	require.NoError(t, err)
	assert.Equal(t, "nest string", value)
}

func TestNewNormalizesAndMergesDefaults(t *testing.T) {
	type profile struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	store, err := New(profile{Name: "ada"}, WithDefaults(map[string]any{
		"name":  "anonymous",
		"level": 1,
	}))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": "ada", "tags": []any{}, "level": 1}, store.Snapshot())
	assert.NotEmpty(t, store.ID())

	_, err = New(map[string]any{"fn": func() {}})
	require.Error(t, err)
}

func TestActivityEvents(t *testing.T) {
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	capture := &activity.CaptureHook{}
	store := newStore(t,
		WithID("form-1"),
		WithActivityHooks(activity.Hooks{capture}),
		WithActivityActor("actor-1", "", ""),
		WithClock(func() time.Time { return stamp }),
	)

	require.NoError(t, store.RegisterValidator([]selector.Selector{selector.Fields("str")}, func(values []any) string {
		if values[0] != "success" {
			return "str is not success"
		}
		return ""
	}))
	require.NoError(t, store.ChangeValue(selector.Fields("str"), "nope"))

	assert.Equal(t, []string{
		activity.VerbValidatorRegistered,
		activity.VerbValueChanged,
		activity.VerbValidationChanged,
	}, capture.Verbs())

	changed := capture.Filter(activity.VerbValueChanged)[0]
	assert.Equal(t, "form-1", changed.ObjectID)
	assert.Equal(t, "actor-1", changed.ActorID)
	assert.Equal(t, activity.DefaultChannel, changed.Channel)
	assert.True(t, changed.OccurredAt.Equal(stamp))
	assert.Equal(t, "str", changed.Metadata["path"])
	assert.Equal(t, "test string", changed.Metadata["old_value"])
	assert.Equal(t, "nope", changed.Metadata["new_value"])

	ran := capture.Filter(activity.VerbValidationChanged)[0]
	assert.Equal(t, []string{"str"}, ran.Metadata["paths"])
	assert.Equal(t, 1, ran.Metadata["error_count"])
}

func TestActivityHookFailuresAreLogged(t *testing.T) {
	var events []OperationEvent
	capture := &activity.CaptureHook{Err: errors.New("sink down")}
	store := newStore(t,
		WithActivityHooks(activity.Hooks{capture}),
		WithLogger(LoggerFunc(func(event OperationEvent) { events = append(events, event) })),
	)

	require.NoError(t, store.ChangeValue(selector.Fields("str"), "x"))

	var failed []OperationEvent
	for _, event := range events {
		if event.Op == OpActivity {
			failed = append(failed, event)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "str", failed[0].Path)
	assert.ErrorContains(t, failed[0].Err, "sink down")
}

func TestLoggerReceivesOperations(t *testing.T) {
	var ops []string
	store := newStore(t, WithLogger(LoggerFunc(func(event OperationEvent) {
		ops = append(ops, event.Op)
	})))

	sub, err := store.SubscribeValue(selector.Fields("str"), func(any) {})
	require.NoError(t, err)
	require.NoError(t, store.ChangeValue(selector.Fields("str"), "x"))
	sub.Unsubscribe()
	sub.Unsubscribe()

	assert.Equal(t, []string{OpSubscribe, OpValidate, OpChange, OpUnsubscribe}, ops)
}

func TestLogrusLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	store := newStore(t, WithLogger(NewLogrusLogger(logger.WithField("component", "form"))))
	require.NoError(t, store.ChangeValue(selector.Fields("str"), "x"))
	require.Error(t, store.ChangeValue(selector.Fields("missing", "child"), 1))

	output := buf.String()
	assert.Contains(t, output, "level=debug")
	assert.Contains(t, output, "op=change")
	assert.Contains(t, output, "component=form")
	assert.Contains(t, output, "level=warning")
	assert.Contains(t, output, "undefined intermediate")
}

func TestDecodeAndSnapshotAs(t *testing.T) {
	type nested struct {
		NestStr string `json:"nestStr"`
	}
	type form struct {
		Str string `json:"str"`
		Num int    `json:"num"`
		Obj nested `json:"obj"`
		Arr []int  `json:"arr"`
	}
	store := newStore(t)

	snapshot, err := SnapshotAs[form](store)
	require.NoError(t, err)
	assert.Equal(t, form{Str: "test string", Num: 100, Obj: nested{NestStr: "nest string"}, Arr: []int{1, 2, 3}}, snapshot)

	arr, err := Decode[[]int](store, selector.Fields("arr"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, arr)

	_, err = Decode[int](store, selector.Fields("str"))
	require.Error(t, err)
}

func TestEmptyingArrayClearsElementErrors(t *testing.T) {
	store, err := New(map[string]any{"arr": []any{-1}})
	require.NoError(t, err)
	require.NoError(t, store.RegisterValidator([]selector.Selector{selector.FromPath("arr/0")}, negative))

	var rootErrs [][]validation.ValidationError
	_, err = store.SubscribeError(rootSelector, func(errs []validation.ValidationError) {
		rootErrs = append(rootErrs, errs)
	})
	require.NoError(t, err)
	require.NoError(t, store.RunAllValidation())
	require.True(t, store.HasErrors())
	require.Len(t, rootErrs, 2)

	require.NoError(t, store.ChangeValue(selector.Fields("arr"), []any{}))
	require.Len(t, rootErrs, 3)
	assert.Empty(t, rootErrs[2])
	assert.False(t, store.HasErrors())
}
