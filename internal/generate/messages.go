package generate

// Messages holds the user-facing strings published by the surface and the
// controller. Callers may override any of them for localization.
type Messages struct {
	Initializing   string
	Completed      string
	Success        string
	GenericFailure string
	DecodeFailure  string
	Abandoned      string
	Busy           string
}

// DefaultMessages returns the English defaults.
func DefaultMessages() Messages {
	return Messages{
		Initializing:   "Initializing...",
		Completed:      "Generation finished, check the result below.",
		Success:        "Audio generated successfully!",
		GenericFailure: "Something went wrong while generating audio. Please try again.",
		DecodeFailure:  "The generated audio could not be decoded. Please try again.",
		Abandoned:      "Generation abandoned.",
		Busy:           "A generation is already in progress.",
	}
}

// merged fills empty fields from the defaults so partial overrides work.
func (m Messages) merged() Messages {
	def := DefaultMessages()
	if m.Initializing == "" {
		m.Initializing = def.Initializing
	}
	if m.Completed == "" {
		m.Completed = def.Completed
	}
	if m.Success == "" {
		m.Success = def.Success
	}
	if m.GenericFailure == "" {
		m.GenericFailure = def.GenericFailure
	}
	if m.DecodeFailure == "" {
		m.DecodeFailure = def.DecodeFailure
	}
	if m.Abandoned == "" {
		m.Abandoned = def.Abandoned
	}
	if m.Busy == "" {
		m.Busy = def.Busy
	}
	return m
}
