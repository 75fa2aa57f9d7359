package method

type Method uint8

// Unknown stands for any token outside the supported set. Such requests are still
// parsed and answered with 405 Method Not Allowed.
const (
	Unknown Method = iota
	GET
	HEAD
	POST
	PUT
	DELETE
	TRACE
	CONNECT

	// Count is the last one enum, so contains the greatest integer value of all the
	// methods. So real number of methods is lower by 1
	Count = iota - 1
)

// List contains all the recognized HTTP methods. They are sorted by their integer value, however
// Unknown method is not included. So in order to index the List, you must subtract 1 first.
var List = []Method{GET, HEAD, POST, PUT, DELETE, TRACE, CONNECT}

// Parse matches the token exactly and case-sensitively.
func Parse(str string) Method {
	switch len(str) {
	case 3:
		switch str {
		case "GET":
			return GET
		case "PUT":
			return PUT
		}
	case 4:
		switch str {
		case "POST":
			return POST
		case "HEAD":
			return HEAD
		}
	case 5:
		if str == "TRACE" {
			return TRACE
		}
	case 6:
		if str == "DELETE" {
			return DELETE
		}
	case 7:
		if str == "CONNECT" {
			return CONNECT
		}
	}

	return Unknown
}

func (m Method) String() string {
	switch m {
	case GET:
		return "GET"
	case HEAD:
		return "HEAD"
	case POST:
		return "POST"
	case PUT:
		return "PUT"
	case DELETE:
		return "DELETE"
	case TRACE:
		return "TRACE"
	case CONNECT:
		return "CONNECT"
	default:
		return "UNKNOWN"
	}
}
