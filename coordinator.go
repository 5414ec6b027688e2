package s7ua

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/s7ua-go/s7ua/discover"
	"github.com/s7ua-go/s7ua/internal/metrics"
	"github.com/s7ua-go/s7ua/opcuaclient"
	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/s7type"
	"github.com/s7ua-go/s7ua/snapshot"
	"github.com/s7ua-go/s7ua/store"
)

// Well-known root node ids this module expects the server to expose.
// The underlying OPC UA stack resolves these; this module never
// constructs or validates node id syntax beyond using it as an opaque
// string (spec.md §1).
const (
	rootDataBlocksGlobalID   = "ns=3;s=DataBlocksGlobal"
	rootDataBlocksInstanceID = "ns=3;s=DataBlocksInstance"
	rootInputsID             = "ns=3;s=Inputs"
	rootOutputsID            = "ns=3;s=Outputs"
	rootMemoryID             = "ns=3;s=Memory"
	rootTimersID             = "ns=3;s=Timers"
	rootCountersID           = "ns=3;s=Counters"
)

// Coordinator is the Service Coordinator: the orchestration layer
// callers drive (spec.md §4.6). It owns no network state of its own —
// every OPC UA operation runs through the Main Client's session pool.
type Coordinator struct {
	client   *opcuaclient.Client
	store    *store.Store
	registry *s7type.Registry
	engine   *discover.Engine
	fs       ports.FileSystem
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger

	Events *EventBus

	detachConnListener func()
}

// New builds a Coordinator wiring the given collaborators. log and m
// may be nil.
func New(client *opcuaclient.Client, st *store.Store, registry *s7type.Registry, engine *discover.Engine, fs ports.FileSystem, m *metrics.Metrics, log *zap.SugaredLogger) *Coordinator {
	c := &Coordinator{
		client:   client,
		store:    st,
		registry: registry,
		engine:   engine,
		fs:       fs,
		metrics:  m,
		log:      log,
		Events:   NewEventBus(),
	}

	c.detachConnListener = client.OnStateChange(func(from, to opcuaclient.ConnState) {
		c.Events.emitConnectionStateChanged(ConnectionStateChanged{From: from, To: to})
	})

	return c
}

// requireConnected returns ErrNotConnected unless the Main Client is
// Connected (spec.md §7, kind 1: "thrown by read_all, discover, subscribe").
func (c *Coordinator) requireConnected() error {
	if c.client.State() != opcuaclient.Connected {
		return opcuaclient.ErrNotConnected
	}
	return nil
}

// DiscoverStructure fetches the seven root shells concurrently, fully
// materializes every data block and populated area element, and
// replaces the store's entire Root (spec.md §4.6).
func (c *Coordinator) DiscoverStructure(ctx context.Context) error {
	if err := c.requireConnected(); err != nil {
		return err
	}

	var (
		dbsGlobal   []*store.StructureElement
		dbsInstance []*store.InstanceDataBlock
		inputs      *store.StructureElement
		outputs     *store.StructureElement
		memory      *store.StructureElement
		timers      *store.StructureElement
		counters    *store.StructureElement
	)

	err := c.client.Execute(ctx, func(conn ports.OPCUAConn) error {
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			shells, err := c.engine.DiscoverShellList(gctx, conn, rootDataBlocksGlobalID, discover.TagGlobalDataBlock)
			if err != nil {
				return fmt.Errorf("discover DataBlocksGlobal shells: %w", err)
			}
			elems := make([]*store.StructureElement, len(shells))
			inner, innerCtx := errgroup.WithContext(gctx)
			for i, sh := range shells {
				i, sh := i, sh
				inner.Go(func() error {
					elems[i] = c.engine.DiscoverStructureElement(innerCtx, conn, "DataBlocksGlobal", &sh)
					return nil
				})
			}
			if err := inner.Wait(); err != nil {
				return err
			}
			dbsGlobal = elems
			return nil
		})

		g.Go(func() error {
			shells, err := c.engine.DiscoverShellList(gctx, conn, rootDataBlocksInstanceID, discover.TagInstanceDataBlock)
			if err != nil {
				return fmt.Errorf("discover DataBlocksInstance shells: %w", err)
			}
			elems := make([]*store.InstanceDataBlock, len(shells))
			inner, innerCtx := errgroup.WithContext(gctx)
			for i, sh := range shells {
				i, sh := i, sh
				inner.Go(func() error {
					elems[i] = c.engine.DiscoverInstanceDataBlock(innerCtx, conn, "DataBlocksInstance", &sh)
					return nil
				})
			}
			if err := inner.Wait(); err != nil {
				return err
			}
			dbsInstance = elems
			return nil
		})

		areas := []struct {
			nodeID string
			name   string
			dest   **store.StructureElement
		}{
			{rootInputsID, store.RootInputs, &inputs},
			{rootOutputsID, store.RootOutputs, &outputs},
			{rootMemoryID, store.RootMemory, &memory},
			{rootTimersID, store.RootTimers, &timers},
			{rootCountersID, store.RootCounters, &counters},
		}
		for _, a := range areas {
			a := a
			g.Go(func() error {
				*a.dest = c.engine.DiscoverStructureElement(gctx, conn, "", &discover.Shell{
					NodeID: a.nodeID, DisplayName: a.name, Tag: discover.TagAreaElement,
				})
				return nil
			})
		}

		return g.Wait()
	})
	if err != nil {
		return err
	}

	c.store.SetStructure(dbsGlobal, dbsInstance, inputs, outputs, memory, timers, counters)
	c.store.BuildCache()
	return nil
}

// ReadAllVariables snapshots the current cache, re-reads every variable
// that has a node id through the session pool, replaces the store's
// Root, and diffs old vs new by full path, emitting VariableValueChanged
// for every difference (spec.md §4.6).
func (c *Coordinator) ReadAllVariables(ctx context.Context) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.ReadCycles.Inc()
	}

	old := c.store.GetAll()
	root := c.store.Root()

	err := c.client.Execute(ctx, func(conn ports.OPCUAConn) error {
		g, gctx := errgroup.WithContext(ctx)

		newGlobal := make([]*store.StructureElement, len(root.DataBlocksGlobal))
		for i, db := range root.DataBlocksGlobal {
			i, db := i, db
			g.Go(func() error {
				out, err := c.readElement(gctx, conn, db)
				newGlobal[i] = out
				return err
			})
		}

		newInstance := make([]*store.InstanceDataBlock, len(root.DataBlocksInstance))
		for i, idb := range root.DataBlocksInstance {
			i, idb := i, idb
			g.Go(func() error {
				out, err := c.readInstanceDataBlock(gctx, conn, idb)
				newInstance[i] = out
				return err
			})
		}

		var newInputs, newOutputs, newMemory, newTimers, newCounters *store.StructureElement
		for _, a := range []struct {
			src  *store.StructureElement
			dest **store.StructureElement
		}{
			{root.Inputs, &newInputs},
			{root.Outputs, &newOutputs},
			{root.Memory, &newMemory},
			{root.Timers, &newTimers},
			{root.Counters, &newCounters},
		} {
			a := a
			g.Go(func() error {
				out, err := c.readElement(gctx, conn, a.src)
				*a.dest = out
				return err
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		c.store.SetStructure(newGlobal, newInstance, newInputs, newOutputs, newMemory, newTimers, newCounters)
		return nil
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.ReadCycleErrors.Inc()
		}
		return err
	}

	c.store.BuildCache()

	newAll := c.store.GetAll()
	for path, nv := range newAll {
		ov, existed := old[path]
		if !existed || valuesDiffer(ov.Value, nv.Value) {
			var oldCopy *store.Variable
			if existed {
				oldCopy = ov
			}
			c.Events.emitVariableChanged(VariableValueChanged{Path: path, Old: oldCopy, New: nv})
		}
	}
	return nil
}

// readElement reads every node-id-bearing Variable directly under se in
// a single batched Read, decoding each through the registry. Returns a
// shallow copy with refreshed Variables; se itself is untouched so
// concurrent readers of the prior Root snapshot stay consistent.
func (c *Coordinator) readElement(ctx context.Context, conn ports.OPCUAConn, se *store.StructureElement) (*store.StructureElement, error) {
	if se == nil || len(se.Variables) == 0 {
		return se, nil
	}

	ids := make([]string, 0, len(se.Variables))
	for _, v := range se.Variables {
		if v.NodeID != "" {
			ids = append(ids, v.NodeID)
		}
	}
	if len(ids) == 0 {
		return se, nil
	}

	values, err := conn.Read(ctx, ids)
	if err != nil {
		return se, fmt.Errorf("read element %s: %w", se.FullPath, err)
	}
	byID := make(map[string]ports.DataValue, len(values))
	for _, dv := range values {
		byID[dv.NodeID] = dv
	}

	out := *se
	out.Variables = make([]*store.Variable, len(se.Variables))
	for i, v := range se.Variables {
		nv := v.Clone()
		if dv, ok := byID[v.NodeID]; ok {
			nv.RawWireValue = dv.Value
			nv.Quality = dv.Quality
			decoded, derr := c.registry.For(v.S7Type).Decode(dv.Value)
			if derr != nil {
				if c.log != nil {
					c.log.Warnw("codec decode failed during read cycle", "path", v.FullPath, "s7_type", v.S7Type, "error", derr)
				}
				nv.Value = nil
			} else {
				nv.Value = decoded
			}
		}
		out.Variables[i] = nv
	}
	return &out, nil
}

func (c *Coordinator) readInstanceDataBlock(ctx context.Context, conn ports.OPCUAConn, idb *store.InstanceDataBlock) (*store.InstanceDataBlock, error) {
	out := *idb
	var err error
	if out.Input, err = c.readElement(ctx, conn, idb.Input); err != nil {
		return &out, err
	}
	if out.Output, err = c.readElement(ctx, conn, idb.Output); err != nil {
		return &out, err
	}
	if out.InOut, err = c.readElement(ctx, conn, idb.InOut); err != nil {
		return &out, err
	}
	if out.Static, err = c.readElement(ctx, conn, idb.Static); err != nil {
		return &out, err
	}
	return &out, nil
}

// WriteVariable resolves path in the store and writes hostValue through
// the client. Any failure is logged and reported as false, never as an
// error (spec.md §4.6: "Any exception becomes a false return with an
// error log").
func (c *Coordinator) WriteVariable(ctx context.Context, path string, hostValue any) bool {
	v, ok := c.store.TryGetByPath(path)
	if !ok || v.NodeID == "" {
		if c.log != nil {
			c.log.Warnw("write_variable: unknown path or missing node id", "path", path)
		}
		return false
	}

	wire, err := c.registry.For(v.S7Type).Encode(hostValue)
	if err != nil {
		if c.log != nil {
			c.log.Errorw("write_variable: encode failed", "path", path, "s7_type", v.S7Type, "error", err)
		}
		return false
	}

	err = c.client.Execute(ctx, func(conn ports.OPCUAConn) error {
		status, werr := conn.Write(ctx, v.NodeID, wire)
		if werr != nil {
			return werr
		}
		if status.Code != 0 {
			return &opcuaclient.ProtocolError{Operation: "write", Code: status.Code, Symbol: status.Symbol}
		}
		return nil
	})
	if err != nil {
		if c.log != nil {
			c.log.Errorw("write_variable: write failed", "path", path, "node_id", v.NodeID, "error", err)
		}
		return false
	}
	return true
}

// UpdateVariableType replaces the variable's S7Type, re-discovering
// struct members online when the new type is STRUCT, and re-runs the
// codec over the retained raw wire value (spec.md §4.6).
func (c *Coordinator) UpdateVariableType(ctx context.Context, path string, newType s7type.S7Type) error {
	v, ok := c.store.TryGetByPath(path)
	if !ok {
		return store.ErrInvalidPath
	}

	nv := v.Clone()
	nv.S7Type = newType

	if newType == s7type.STRUCT && c.client.State() == opcuaclient.Connected && v.NodeID != "" {
		err := c.client.Execute(ctx, func(conn ports.OPCUAConn) error {
			se := c.engine.DiscoverStructureElement(ctx, conn, "", &discover.Shell{
				NodeID: v.NodeID, DisplayName: v.DisplayName, Tag: discover.TagGenericStructureElement,
			})
			if se != nil {
				nv.StructMembers = se.Variables
			}
			return nil
		})
		if err != nil && c.log != nil {
			c.log.Warnw("update_variable_type: online struct re-discovery failed", "path", path, "error", err)
		}
	}

	decoded, err := c.registry.For(newType).Decode(nv.RawWireValue)
	if err != nil {
		if c.log != nil {
			c.log.Warnw("update_variable_type: codec conversion failed", "path", path, "new_type", newType, "error", err)
		}
		nv.Value = nil
		nv.SystemType = ""
	} else {
		nv.Value = decoded
	}

	if err := c.store.UpdateVariable(path, nv); err != nil {
		return err
	}

	if valuesDiffer(v.Value, nv.Value) {
		c.Events.emitVariableChanged(VariableValueChanged{Path: path, Old: v, New: nv})
	}
	return nil
}

// Subscribe upserts a variable's subscription state and ensures the
// client's subscription is registered for its node id (spec.md §4.6).
// A nil sampling retains the variable's existing SamplingInterval.
func (c *Coordinator) Subscribe(ctx context.Context, path string, sampling *time.Duration) error {
	if err := c.requireConnected(); err != nil {
		return err
	}

	v, ok := c.store.TryGetByPath(path)
	if !ok {
		return store.ErrInvalidPath
	}
	if v.NodeID == "" {
		return store.ErrInvalidPath
	}

	nv := v.Clone()
	if sampling != nil {
		nv.SamplingInterval = *sampling
	}
	nv.IsSubscribed = true

	if err := c.client.Subscribe(ctx, v.NodeID, nv.SamplingInterval); err != nil {
		return err
	}
	if c.metrics != nil && !v.IsSubscribed {
		c.metrics.ActiveSubscriptions.Inc()
	}

	c.store.TrackSubscription(v.NodeID, path)
	return c.store.UpdateVariable(path, nv)
}

// HandlePushNotification implements the push path (spec.md §4.6): a
// monitored-item notification arrives keyed by node id, resolved back
// to a path via the store's node-id map. Unknown node ids are logged
// and dropped, never propagated (spec.md §7: "the monitored-item push
// path never throws").
func (c *Coordinator) HandlePushNotification(n ports.Notification) {
	path, ok := c.store.PathForNodeID(n.NodeID)
	if !ok {
		if c.log != nil {
			c.log.Warnw("push path: unknown node id", "node_id", n.NodeID)
		}
		return
	}
	v, ok := c.store.TryGetByPath(path)
	if !ok {
		if c.log != nil {
			c.log.Warnw("push path: path no longer in store", "path", path)
		}
		return
	}

	c.Events.emitMonitoredItemChanged(MonitoredItemChanged{DisplayName: v.DisplayName, NodeID: n.NodeID, Raw: n.Value})

	decoded, err := c.registry.For(v.S7Type).Decode(n.Value)
	if err != nil {
		if c.log != nil {
			c.log.Warnw("push path: codec decode failed", "path", path, "error", err)
		}
		return
	}

	if !valuesDiffer(v.Value, decoded) {
		return
	}

	nv := v.Clone()
	nv.RawWireValue = n.Value
	nv.Value = decoded
	nv.Quality = n.Quality
	if err := c.store.UpdateVariable(path, nv); err != nil {
		if c.log != nil {
			c.log.Errorw("push path: store update failed", "path", path, "error", err)
		}
		return
	}
	if c.metrics != nil {
		c.metrics.VariableChanges.Inc()
	}
	c.Events.emitVariableChanged(VariableValueChanged{Path: path, Old: v, New: nv})
}

// SaveStructure serializes the store's current Root to path through the
// coordinator's configured file system (spec.md §4.6).
func (c *Coordinator) SaveStructure(path string) error {
	return snapshot.SaveStructure(c.store, c.fs, path)
}

// LoadStructure deserializes path, replaces the store's Root, and
// rebuilds the cache (spec.md §4.6).
func (c *Coordinator) LoadStructure(path string) error {
	return snapshot.LoadStructure(c.store, c.fs, path)
}

// Close detaches every event handler from the client, then tears down
// the pool and the client, in that order (spec.md §9:
// "Disposability is explicit ... dropping the coordinator detaches
// every event handler from the client first, then tears down the pool,
// then the client").
func (c *Coordinator) Close(ctx context.Context) error {
	if c.detachConnListener != nil {
		c.detachConnListener()
	}
	return c.client.Close(ctx)
}
