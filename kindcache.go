package membercache

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/canonical/membercache/metadata"
)

// memberPtr constrains a descriptor pointer type: a *E that satisfies
// Member.
type memberPtr[E any] interface {
	*E
	Member
}

// kindCache is the per-(type, kind) member cache. It owns the master list
// of every member of its kind discovered so far, a completeness flag, and
// two name-keyed maps memoizing previously computed result lists.
//
// Hierarchy walks run outside any lock, fully speculatively; concurrent
// walks for the same query are accepted as the cost of never holding a
// lock across the metadata reader. Only the merge of walk results into
// the shared lists is serialized, per cache instance.
type kindCache[E any, PE memberPtr[E]] struct {
	rt   *RuntimeType
	kind metadata.Kind

	populate func(*RuntimeType, filter) []PE
	resolve  func(*RuntimeType, metadata.Token) PE

	// mu serializes mutation of the master list and the name caches. It
	// is never held across a call into the metadata reader.
	mu sync.RWMutex

	// slots is the master list backing array. Its filled prefix holds the
	// canonical member instances and is terminated by the first nil slot;
	// trailing slots are undefined while population is incomplete. Slot
	// writes are release stores paired with acquire loads, so readers may
	// scan the prefix without taking mu.
	slots atomic.Pointer[[]atomic.Pointer[E]]

	// count is the logical length of the filled prefix. Guarded by mu.
	count int

	// trimmed is the immutable, discovery-ordered master list published
	// at completion. Valid once complete is set.
	trimmed atomic.Pointer[[]PE]

	// complete records that the master list holds every member of the
	// kind reachable from the type. Its store is ordered after the
	// trimmed list's, so observing complete guarantees a fully populated
	// list without the lock.
	complete atomic.Bool

	cs map[string][]PE // case-sensitive name -> merged result list
	ci map[string][]PE // folded name -> merged result list
}

func newKindCache[E any, PE memberPtr[E]](
	rt *RuntimeType,
	kind metadata.Kind,
	populate func(*RuntimeType, filter) []PE,
	resolve func(*RuntimeType, metadata.Token) PE,
) *kindCache[E, PE] {
	return &kindCache[E, PE]{
		rt:       rt,
		kind:     kind,
		populate: populate,
		resolve:  resolve,
		cs:       map[string][]PE{},
		ci:       map[string][]PE{},
	}
}

// foldName is the case-insensitive cache key for a name.
func foldName(name string) string {
	return strings.ToLower(name)
}

// memberList returns the definitive result list for the query, populating
// and memoizing as required. Returned lists must be treated as immutable.
func (kc *kindCache[E, PE]) memberList(lt ListType, name string) []PE {
	switch lt {
	case ListAll:
		if kc.complete.Load() {
			return *kc.trimmed.Load()
		}
	case ListCaseSensitive:
		kc.mu.RLock()
		list, ok := kc.cs[name]
		kc.mu.RUnlock()
		if ok {
			return list
		}
	case ListCaseInsensitive:
		kc.mu.RLock()
		list, ok := kc.ci[foldName(name)]
		kc.mu.RUnlock()
		if ok {
			return list
		}
	}

	f := newFilter(name, lt)
	var list []PE
	if lt != ListAll && kc.complete.Load() {
		// The master list is definitive; filter it rather than walking
		// the hierarchy again.
		list = kc.filterMaster(f)
	} else {
		list = kc.populate(kc.rt, f)
	}
	return kc.insert(list, name, lt)
}

// addByHandle resolves a raw member token to its canonical descriptor.
func (kc *kindCache[E, PE]) addByHandle(tok metadata.Token) PE {
	// Best-effort lock-free scan; it may race with a concurrent populate
	// and miss an instance being inserted, in which case the merge below
	// finds it.
	if m, ok := kc.findByToken(tok); ok {
		return m
	}
	list := []PE{kc.resolve(kc.rt, tok)}
	kc.insert(list, "", listHandleToInfo)
	return list[0]
}

// filterMaster computes a name-filtered view of the completed master
// list without consulting the metadata reader.
func (kc *kindCache[E, PE]) filterMaster(f filter) []PE {
	var list []PE
	for _, m := range *kc.trimmed.Load() {
		if f.Match(m.Name()) {
			list = append(list, m)
		}
	}
	return list
}

// insert merges a freshly populated candidate list into the shared state
// and returns the canonical result list for the query. Candidates that
// already exist in the master list are replaced by the existing instances,
// so every published result list is merged with the global list.
func (kc *kindCache[E, PE]) insert(list []PE, name string, lt ListType) []PE {
	kc.mu.Lock()
	defer kc.mu.Unlock()

	switch lt {
	case ListCaseSensitive:
		// Another thread may have raced us here; its list is canonical.
		if existing, ok := kc.cs[name]; ok {
			return existing
		}
		kc.mergeWithMaster(list)
		kc.cs[name] = list
	case ListCaseInsensitive:
		key := foldName(name)
		if existing, ok := kc.ci[key]; ok {
			return existing
		}
		kc.mergeWithMaster(list)
		kc.ci[key] = list
	case ListAll:
		if !kc.complete.Load() {
			kc.mergeInOrder(list)
		}
		return *kc.trimmed.Load()
	case listHandleToInfo:
		kc.mergeWithMaster(list)
	}
	return list
}

// findByToken scans the master list's filled prefix for a member with the
// given token. Safe without the lock: the prefix is nil-terminated and
// slots are published with release stores.
func (kc *kindCache[E, PE]) findByToken(tok metadata.Token) (PE, bool) {
	var zero PE
	arr := kc.slots.Load()
	if arr == nil {
		return zero, false
	}
	for i := range *arr {
		p := (*arr)[i].Load()
		if p == nil {
			// End of the filled prefix; nothing beyond is valid.
			break
		}
		if m := PE(p); m.Token() == tok {
			return m, true
		}
	}
	return zero, false
}

// mergeWithMaster interns each candidate against the master list,
// appending candidates not seen before into the first free slot. Called
// with mu held.
func (kc *kindCache[E, PE]) mergeWithMaster(list []PE) {
	for i, cand := range list {
		if existing, ok := kc.findByToken(cand.Token()); ok {
			// Identity preservation: hand out the instance the master
			// list already owns.
			list[i] = existing
			continue
		}
		kc.ensureFreeSlot(len(list))
		arr := kc.slots.Load()
		(*arr)[kc.count].Store((*E)(cand))
		kc.count++
	}
}

// ensureFreeSlot grows the backing array by reallocation and copy when the
// filled prefix has no free slot left. Growth is geometric:
// max(4, 2*cap, newListLength). Called with mu held.
func (kc *kindCache[E, PE]) ensureFreeSlot(newListLen int) {
	arr := kc.slots.Load()
	if arr != nil && kc.count < len(*arr) {
		return
	}
	newCap := 4
	if arr != nil && 2*len(*arr) > newCap {
		newCap = 2 * len(*arr)
	}
	if newListLen > newCap {
		newCap = newListLen
	}
	newArr := make([]atomic.Pointer[E], newCap)
	for i := 0; i < kc.count; i++ {
		newArr[i].Store((*arr)[i].Load())
	}
	kc.slots.Store(&newArr)
}

// mergeInOrder finalizes a full enumeration: candidates are interned
// against the master list, then the master list is replaced by the
// discovery-ordered result, trimmed to its logical length, and the
// completeness flag is published. Called with mu held.
func (kc *kindCache[E, PE]) mergeInOrder(list []PE) {
	for i, cand := range list {
		if existing, ok := kc.findByToken(cand.Token()); ok {
			list[i] = existing
		}
	}
	arr := make([]atomic.Pointer[E], len(list))
	for i, m := range list {
		arr[i].Store((*E)(m))
	}
	kc.slots.Store(&arr)
	kc.count = len(list)
	kc.trimmed.Store(&list)
	// Publish completeness last; readers observing it see the trimmed
	// list without taking mu.
	kc.complete.Store(true)
}
