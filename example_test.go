package ecsx_test

import (
	"context"
	"fmt"

	"github.com/comalice/ecsx"
)

func ExampleSchedule() {
	w := ecsx.NewWorld()
	ecsx.InsertResource(w, ecsx.NewState("menu"))

	sc := ecsx.NewSchedule()
	update, err := sc.AddStage("update", ecsx.WithSystemRunner(ecsx.DefaultSystemRunner()))
	if err != nil {
		panic(err)
	}
	update.
		AddSystemSet(ecsx.DriverSet[string]()).
		AddSystemSet(ecsx.OnEnterSet("menu").WithNamedSystem("greet", func(*ecsx.World) {
			fmt.Println("entered menu")
		})).
		AddSystemSet(ecsx.NewSystemSet().WithSystem(func(*ecsx.World) {
			fmt.Println("every frame")
		}))

	st, _ := sc.Stage("update")
	fmt.Println(st.Name())
	if err := sc.Run(context.Background(), w); err != nil {
		panic(err)
	}
	// Output:
	// update
	// entered menu
	// every frame
}
