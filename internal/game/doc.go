// Package game implements the UNO rule engine.
//
// The main type is Room, which holds the authoritative state of one game:
// players in turn order, the draw and discard piles, the turn pointer and
// any pending draw penalty. Engine is the only mutator of a Room.
//
// # Basic Usage
//
//	e := game.NewEngine(randutil.New(42))
//	room, hostID, _ := e.CreateRoom("Host")
//	guestID, _ := e.Join(room, "Guest")
//	_ = e.Start(room, hostID)
//	view, _ := game.Sanitize(room, guestID)
//
// # Deterministic Testing
//
// The engine takes its randomness as an explicit deck.Source, and its clock
// through WithClock:
//
//	clock := quartz.NewMock(t)
//	e := game.NewEngine(randutil.New(42), game.WithClock(clock))
//
// # Concurrency
//
// Engine methods are synchronous and never lock. Callers must serialize
// mutations of a given Room and give readers a consistent snapshot; see
// the store package. The deck.Source passed to NewEngine is shared by
// every room the engine touches, so production code wraps it in
// randutil.Locked.
//
// Every failed operation returns an *Error and leaves the Room untouched.
package game
