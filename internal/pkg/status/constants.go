package status

// Status represents a project pipeline stage
type Status string

const (
	// Pending - project created, nothing uploaded yet
	Pending Status = "pending"
	// Uploading - source video is being stored
	Uploading Status = "uploading"
	// Diarizing - engine splits audio by speaker
	Diarizing Status = "diarizing"
	// Transcribing - speech recognition of segments
	Transcribing Status = "transcribing"
	// Translating - machine translation of segments
	Translating Status = "translating"
	// VoiceMapping - waiting for a voice per speaker
	VoiceMapping Status = "voice_mapping"
	// Dubbing - voice synthesis of segments
	Dubbing Status = "dubbing"
	// Mixing - dubbed audio mixing
	Mixing Status = "mixing"
	// Rendering - final video muxing
	Rendering Status = "rendering"
	// Completed - final step
	Completed Status = "completed"
	// Failed - terminal error state
	Failed Status = "failed"
)

var (
	forward = []Status{Pending, Uploading, Diarizing, Transcribing, Translating, VoiceMapping,
		Dubbing, Mixing, Rendering, Completed}
	statusIndex = func() map[Status]int {
		res := make(map[Status]int, len(forward))
		for i, st := range forward {
			res[st] = i
		}
		return res
	}()
)

func (st Status) String() string {
	return string(st)
}

// From returns status obj from string, empty status for unknown value
func From(st string) Status {
	res := Status(st)
	if res == Failed {
		return res
	}
	if _, ok := statusIndex[res]; ok {
		return res
	}
	return ""
}

// All returns the forward order followed by Failed
func All() []Status {
	res := make([]Status, 0, len(forward)+1)
	res = append(res, forward...)
	return append(res, Failed)
}

// Index returns the position in the forward order, -1 for Failed or unknown
func (st Status) Index() int {
	if i, ok := statusIndex[st]; ok {
		return i
	}
	return -1
}

// Next returns the immediate forward successor
func (st Status) Next() (Status, bool) {
	i := st.Index()
	if i < 0 || i+1 >= len(forward) {
		return "", false
	}
	return forward[i+1], true
}

// IsTerminal is true for Completed and Failed
func (st Status) IsTerminal() bool {
	return st == Completed || st == Failed
}

// IsActive is true when some stage is running or awaiting input
func (st Status) IsActive() bool {
	return st.Index() > 0 && !st.IsTerminal()
}

// Before reports whether st is strictly earlier than other in the forward order
func (st Status) Before(other Status) bool {
	i, j := st.Index(), other.Index()
	return i >= 0 && j >= 0 && i < j
}
