package main

func main() {
	if err := Execute(); err != nil {
		Log.WithError(err).Fatal("foodgram exited")
	}
}
