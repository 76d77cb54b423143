package reservation

// Credentials are the platform account used to log into every box.
type Credentials struct {
	Email    string
	Password string
}

// BoxRef identifies a box (tenant) on the platform: numeric id plus subdomain.
type BoxRef struct {
	ID   int
	Name string
}

// ClassRequest is what the schedule asks for on a given weekday.
// Time is wall-clock "HH:MM" in the platform timezone.
type ClassRequest struct {
	Time      string
	ClassName string
}
