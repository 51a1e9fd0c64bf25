package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/hobbymatch/backend/internal/handler"
)

func main() { lambda.Start(handler.Welcome) }
