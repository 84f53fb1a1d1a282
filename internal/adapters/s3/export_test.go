package s3

var Classify = classify
