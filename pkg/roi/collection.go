package roi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"path"
	"strings"
	"sync"

	"github.com/elliotchance/orderedmap/v3"
	"gopkg.in/yaml.v3"
)

// Entry is one named ROI buffer handed to the aggregator, typically a file
// inside a zip archive.
type Entry struct {
	Name string
	Data []byte
}

// Failure records why an entry was left out of a collection.
type Failure struct {
	Name string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Name, f.Err)
}

func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(failureView{Name: f.Name, Error: f.Err.Error()})
}

func (f Failure) MarshalYAML() (interface{}, error) {
	return failureView{Name: f.Name, Error: f.Err.Error()}, nil
}

type failureView struct {
	Name  string `json:"name" yaml:"name"`
	Error string `json:"error" yaml:"error"`
}

// Collection maps entry keys to decoded records in source order.
type Collection struct {
	rois     *orderedmap.OrderedMap[string, *ROI]
	failures []Failure
}

func newCollection() *Collection {
	return &Collection{rois: orderedmap.NewOrderedMap[string, *ROI]()}
}

// Get returns the record stored under key.
func (c *Collection) Get(key string) (*ROI, bool) {
	return c.rois.Get(key)
}

// Len returns the number of decoded records.
func (c *Collection) Len() int {
	return c.rois.Len()
}

// Keys returns the record keys in insertion order.
func (c *Collection) Keys() []string {
	keys := make([]string, 0, c.rois.Len())
	for k := range c.rois.Keys() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates over the records in insertion order.
func (c *Collection) All() iter.Seq2[string, *ROI] {
	return c.rois.AllFromFront()
}

// Failures lists the entries that could not be decoded, in source order.
func (c *Collection) Failures() []Failure {
	return c.failures
}

// MarshalJSON writes the collection as a JSON object whose key order follows
// the source archive.
func (c *Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"rois":{`)
	first := true
	for k, r := range c.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString(`},"failures":`)
	failures, err := json.Marshal(c.failuresOrEmpty())
	if err != nil {
		return nil, err
	}
	buf.Write(failures)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML emits the records as an ordered mapping.
func (c *Collection) MarshalYAML() (interface{}, error) {
	rois := &yaml.Node{Kind: yaml.MappingNode}
	for k, r := range c.All() {
		var val yaml.Node
		if err := val.Encode(r); err != nil {
			return nil, fmt.Errorf("marshal %s: %w", k, err)
		}
		rois.Content = append(rois.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &val)
	}
	var failures yaml.Node
	if err := failures.Encode(c.failuresOrEmpty()); err != nil {
		return nil, err
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "rois"}, rois,
			{Kind: yaml.ScalarNode, Value: "failures"}, &failures,
		},
	}, nil
}

// UnmarshalJSON restores a collection written by MarshalJSON, keeping the
// stored key order. Failure reasons come back as plain error strings.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var raw struct {
		ROIs     json.RawMessage `json:"rois"`
		Failures []failureView   `json:"failures"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = *newCollection()
	if len(raw.ROIs) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw.ROIs))
		if _, err := dec.Token(); err != nil {
			return err
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := tok.(string)
			r := &ROI{}
			if err := dec.Decode(r); err != nil {
				return fmt.Errorf("unmarshal %s: %w", key, err)
			}
			c.rois.Set(key, r)
		}
	}
	for _, f := range raw.Failures {
		c.failures = append(c.failures, Failure{Name: f.Name, Err: storedError(f.Error)})
	}
	return nil
}

func (c *Collection) failuresOrEmpty() []Failure {
	if c.failures == nil {
		return []Failure{}
	}
	return c.failures
}

// storedError is a failure reason read back from JSON.
type storedError string

func (e storedError) Error() string { return string(e) }

// EntryKey derives the collection key for an archive entry: its base name
// without the .roi extension.
func EntryKey(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if ext := path.Ext(base); strings.EqualFold(ext, ".roi") {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Observer is told about every entry as it is decoded. It is called from
// the decoding goroutine and must be safe for concurrent use when more than
// one worker is configured.
type Observer func(name string, r *ROI, err error)

type options struct {
	workers  int
	observer Observer
}

// Option configures DecodeAll.
type Option func(*options)

// WithWorkers decodes up to n entries concurrently. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithObserver registers a callback invoked once per entry.
func WithObserver(fn Observer) Option {
	return func(o *options) {
		o.observer = fn
	}
}

type result struct {
	key  string
	name string
	roi  *ROI
	err  error
}

// DecodeAll decodes every entry yielded by entries into a collection. A
// failing entry, whether the source could not read it or the decoder
// rejected it, is recorded in Failures and does not affect the others. The
// returned error is non-nil only when cancellation of ctx cut the source
// short; the collection then holds the entries finished so far. A context
// cancelled after the last entry was handed out does not count.
func DecodeAll(ctx context.Context, entries iter.Seq2[Entry, error], opts ...Option) (*Collection, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	var (
		results []*result
		jobs    = make(chan job)
		wg      sync.WaitGroup
	)
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				j.res.roi, j.res.err = Decode(j.res.key, j.data)
				if o.observer != nil {
					o.observer(j.res.name, j.res.roi, j.res.err)
				}
			}
		}()
	}

	var ctxErr error
	for e, err := range entries {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}
		res := &result{key: EntryKey(e.Name), name: e.Name}
		results = append(results, res)
		if err != nil {
			res.err = err
			if o.observer != nil {
				o.observer(e.Name, nil, err)
			}
			continue
		}
		select {
		case jobs <- job{res: res, data: e.Data}:
			continue
		case <-ctx.Done():
		}
		ctxErr = ctx.Err()
		res.err = ctxErr
		break
	}
	close(jobs)
	wg.Wait()

	coll := newCollection()
	for _, res := range results {
		switch {
		case res.err != nil:
			coll.failures = append(coll.failures, Failure{Name: res.name, Err: res.err})
		case coll.rois.Has(res.key):
			coll.failures = append(coll.failures, Failure{Name: res.name, Err: fmt.Errorf("%w: key %q", ErrDuplicateEntry, res.key)})
		default:
			coll.rois.Set(res.key, res.roi)
		}
	}
	return coll, ctxErr
}

type job struct {
	res  *result
	data []byte
}

// DecodeEntries is DecodeAll for an in-memory list of entries.
func DecodeEntries(entries []Entry, opts ...Option) *Collection {
	coll, _ := DecodeAll(context.Background(), func(yield func(Entry, error) bool) {
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}, opts...)
	return coll
}
