package indicator

import "io"

// Driver shows whether faces are being blurred right now, e.g. a LED next to the camera
type Driver interface {
	io.Closer
	Open() error
	Set(on bool) error
}
