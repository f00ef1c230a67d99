package bloom

import "errors"

var errBadFilterEncoding = errors.New("bloom: malformed filter encoding")
