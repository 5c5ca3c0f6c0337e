// Package ecsx provides the two runtime primitives an entity-component-system
// scheduler needs to run many systems against one shared data store:
//
//   - a dynamic aliasing guard (World, WorldCell, Borrow, BorrowMut) enforcing
//     "one writer XOR many readers" per resource slot at run time;
//   - a stacked state machine (State, Driver) whose transitions are exposed to
//     the scheduler as composable run criteria (OnEnter, OnUpdate, ...).
//
// # Resource access
//
//	w := ecsx.NewWorld()
//	ecsx.InsertResource(w, Score{})
//	ecsx.InsertResource(w, Round{})
//
//	cell := w.Cell()
//	defer cell.Close()
//	score, _ := ecsx.GetResourceMut[Score](cell)
//	defer score.Release()
//	round, _ := ecsx.GetResource[Round](cell)
//	defer round.Release()
//
// Denied borrows panic: access partitioning is expected to be known ahead of
// time, so a conflict is a logic defect rather than contention.
//
// # State stacks
//
//	ecsx.InsertResource(w, ecsx.NewState(Menu))
//	stage := ecsx.NewStage("update")
//	stage.AddSystemSet(ecsx.DriverSet[GameState]())
//	stage.AddSystemSet(ecsx.OnEnterSet(Playing).WithSystem(spawnPlayer))
//	stage.AddSystemSet(ecsx.OnUpdateSet(Playing).WithSystem(movePlayer))
//
// The driver must be added before the sets that depend on it. Each Stage.Run
// settles the state machine: every pending transition phase is delivered in
// order, and update criteria observe the settled state exactly once.
package ecsx
