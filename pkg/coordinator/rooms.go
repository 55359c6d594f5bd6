package coordinator

import (
	"sync"

	"github.com/projam/jamrelay/pkg/config"
	"github.com/projam/jamrelay/pkg/logger"
)

// Rooms maps room names to their coordinators.
// Every connection holds a reference to its room,
// a room without references is forgotten unless KeepEmpty is set.
type Rooms struct {
	conf config.Room

	mu    sync.Mutex
	rooms map[string]*roomRef

	log *logger.Logger
}

type roomRef struct {
	*Room
	refs int
}

func NewRooms(conf config.Room, log *logger.Logger) *Rooms {
	if log == nil {
		log = logger.Default()
	}
	return &Rooms{conf: conf, rooms: make(map[string]*roomRef), log: log}
}

// Acquire returns the room with the name, creating it on the first use.
// Each Acquire must be paired with Release.
func (rs *Rooms) Acquire(id string) *Room {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	ref, ok := rs.rooms[id]
	if !ok {
		ref = &roomRef{Room: NewRoom(id, rs.conf, rs.log)}
		rs.rooms[id] = ref
		roomsActive.Inc()
		rs.log.Info().Str(logger.RoomField, id).Msg("Room created")
	}
	ref.refs++
	return ref.Room
}

func (rs *Rooms) Release(room *Room) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	ref, ok := rs.rooms[room.Id()]
	if !ok || ref.Room != room {
		return
	}
	ref.refs--
	if ref.refs > 0 || rs.conf.KeepEmpty {
		return
	}
	delete(rs.rooms, room.Id())
	roomsActive.Dec()
	rs.log.Info().Str(logger.RoomField, room.Id()).Msg("Room closed")
}

// Find returns the room if it is still in memory.
func (rs *Rooms) Find(id string) (*Room, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	ref, ok := rs.rooms[id]
	if !ok {
		return nil, false
	}
	return ref.Room, true
}

func (rs *Rooms) Len() int { rs.mu.Lock(); defer rs.mu.Unlock(); return len(rs.rooms) }
