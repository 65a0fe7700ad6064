package response

type Response struct {
	Success bool `json:"success"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func OK() Response {
	return Response{Success: true}
}
