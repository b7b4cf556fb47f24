// Package fixtures holds recorded exchange data shared by tests.
package fixtures

import "github.com/demigunkan/marketstatus/internal/types"

// BTCUSDDepth is the depth of the recorded BTC-USD snapshot.
const BTCUSDDepth = 25

// BTCUSDBids returns a fresh copy of the recorded BTC-USD bid ladder, best first.
func BTCUSDBids() []types.Level {
	return []types.Level{
		{Quantity: "0.19157204", Rate: "29954.31800000"},
		{Quantity: "0.08209000", Rate: "29952.82100000"},
		{Quantity: "0.19500000", Rate: "29952.82000000"},
		{Quantity: "0.10012979", Rate: "29949.20100000"},
		{Quantity: "0.01600000", Rate: "29945.88400000"},
		{Quantity: "0.08084000", Rate: "29945.87200000"},
		{Quantity: "0.16680000", Rate: "29945.72700000"},
		{Quantity: "0.23810355", Rate: "29941.28200000"},
		{Quantity: "0.10014263", Rate: "29939.44600000"},
		{Quantity: "0.10014370", Rate: "29939.01800000"},
		{Quantity: "0.00200000", Rate: "29936.90800000"},
		{Quantity: "0.16690744", Rate: "29927.01500000"},
		{Quantity: "0.16694763", Rate: "29922.26100000"},
		{Quantity: "0.66139631", Rate: "29918.78700000"},
		{Quantity: "0.00988520", Rate: "29915.44200000"},
		{Quantity: "0.34600000", Rate: "29912.70000000"},
		{Quantity: "0.92100000", Rate: "29890.30000000"},
		{Quantity: "0.00653655", Rate: "29885.52800000"},
		{Quantity: "0.00989015", Rate: "29885.52700000"},
		{Quantity: "0.01634409", Rate: "29867.80100000"},
		{Quantity: "1.71500000", Rate: "29867.80000000"},
		{Quantity: "0.04248755", Rate: "29855.64200000"},
		{Quantity: "0.00989510", Rate: "29855.64100000"},
		{Quantity: "0.00990005", Rate: "29825.78600000"},
		{Quantity: "0.00990500", Rate: "29795.96000000"},
	}
}

// BTCUSDAsks returns a fresh copy of the recorded BTC-USD ask ladder, best first.
func BTCUSDAsks() []types.Level {
	return []types.Level{
		{Quantity: "0.19500000", Rate: "29964.38100000"},
		{Quantity: "0.16680000", Rate: "29965.95800000"},
		{Quantity: "0.01600000", Rate: "29970.49500000"},
		{Quantity: "0.24536529", Rate: "29970.49600000"},
		{Quantity: "0.08325000", Rate: "29970.50000000"},
		{Quantity: "0.10013719", Rate: "29971.15200000"},
		{Quantity: "0.08100000", Rate: "29971.28900000"},
		{Quantity: "0.26007686", Rate: "29971.30100000"},
		{Quantity: "0.10012682", Rate: "29974.31600000"},
		{Quantity: "0.00986545", Rate: "29975.33300000"},
		{Quantity: "0.10011991", Rate: "29976.33800000"},
		{Quantity: "0.00400000", Rate: "29978.85000000"},
		{Quantity: "0.16690616", Rate: "29980.64400000"},
		{Quantity: "0.34600000", Rate: "29981.30000000"},
		{Quantity: "0.16687803", Rate: "29986.25200000"},
		{Quantity: "0.92100000", Rate: "30003.80000000"},
		{Quantity: "0.00985559", Rate: "30005.30900000"},
		{Quantity: "1.71500000", Rate: "30012.29200000"},
		{Quantity: "0.31059745", Rate: "30029.39200000"},
		{Quantity: "0.06705000", Rate: "30034.54600000"},
		{Quantity: "0.00985067", Rate: "30035.31400000"},
		{Quantity: "0.12344733", Rate: "30065.34800000"},
		{Quantity: "0.00984576", Rate: "30065.34900000"},
		{Quantity: "0.22920401", Rate: "30087.89000000"},
		{Quantity: "12.02700000", Rate: "30087.89100000"},
	}
}
